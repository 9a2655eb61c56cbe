package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Storage  StorageConfig  `json:"storage"`
	Logging  LoggingConfig  `json:"logging"`
	Boards   BoardsConfig   `json:"boards"`
	Limits   LimitsConfig   `json:"limits,omitempty"`
	Stats    StatsConfig    `json:"stats,omitempty"`

	// Locale selects the reply language ("en", "ru"). Default "en".
	Locale string `json:"locale,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`

	// SuperadminIDs is the bootstrap superadmin set. These users are
	// superadmins without any persisted grant.
	SuperadminIDs []int64 `json:"superadmin_ids,omitempty"`
}

type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"` // trace|debug|info|warn|error
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// BoardsConfig holds the defaults applied when a board is created. They
// are not re-validated per submission; per-board values win afterwards.
type BoardsConfig struct {
	DefaultRateLimit     string `json:"default_rate_limit,omitempty"` // Go duration string
	DefaultMaxTextLength int    `json:"default_max_text_length,omitempty"`
}

// LimitsConfig is the inbound flood limiter at the router edge. This is
// separate from per-board posting rate limits.
type LimitsConfig struct {
	UserMsgsPerSec float64 `json:"user_msgs_per_sec,omitempty"`
	UserBurst      int     `json:"user_burst,omitempty"`
}

type StatsConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // cron spec or "@every 24h"
}

// Load reads, parses and validates the config file. YAML is coerced to
// JSON so both formats share one strict decoder.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := toJSON(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Boards.DefaultRateLimit) == "" {
		c.Boards.DefaultRateLimit = "2m"
	}
	if c.Boards.DefaultMaxTextLength <= 0 {
		c.Boards.DefaultMaxTextLength = 300
	}
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = "en"
	}
	if c.Limits.UserMsgsPerSec <= 0 {
		c.Limits.UserMsgsPerSec = 1
	}
	if c.Limits.UserBurst <= 0 {
		c.Limits.UserBurst = 3
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.Schedule) == "" {
		c.Stats.Schedule = "@every 24h"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	d, err := ParseDurationField("boards.default_rate_limit", c.Boards.DefaultRateLimit)
	if err != nil {
		return err
	}
	if d < time.Second {
		return errors.New("boards.default_rate_limit must be at least 1s")
	}
	return nil
}

// PollTimeout returns the parsed poll timeout with its default.
func (c *Config) PollTimeout() time.Duration {
	d, _ := ParseDurationOrDefault("telegram.poll_timeout", c.Telegram.PollTimeout, 10*time.Second)
	return d
}

// BusyTimeout returns the parsed sqlite busy timeout (0 = driver default).
func (c *Config) BusyTimeout() time.Duration {
	d, _ := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	return d
}

// DefaultRateLimitSeconds returns the board-creation default in whole
// seconds.
func (c *Config) DefaultRateLimitSeconds() int {
	d, _ := ParseDurationOrDefault("boards.default_rate_limit", c.Boards.DefaultRateLimit, 2*time.Minute)
	return int(d / time.Second)
}
