// Package logging configures the process-wide zerolog output: a console
// writer, an optional JSON file sink, and a level that can be re-applied
// on config reload.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Console bool
	File    FileConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

type Service struct {
	mu     sync.Mutex
	logger zerolog.Logger
	file   *os.File
}

// New builds the root logger. The returned logger is safe to derive
// sub-loggers from (l.With()...).
func New(cfg Config) (*Service, zerolog.Logger) {
	s := &Service{}
	s.Apply(cfg)
	return s, s.logger
}

// Logger returns the current root logger.
func (s *Service) Logger() zerolog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// Apply rebuilds sinks and re-sets the global level. Called at startup
// and on config reload.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level, zerolog.InfoLevel))

	var sinks []io.Writer
	if cfg.Console {
		sinks = append(sinks, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	// file sink (close old safely)
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if cfg.File.Enabled && strings.TrimSpace(cfg.File.Path) != "" {
		f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			s.file = f
			sinks = append(sinks, f)
		}
	}

	if len(sinks) == 0 {
		sinks = append(sinks, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	s.logger = zerolog.New(zerolog.MultiLevelWriter(sinks...)).With().Timestamp().Logger()
}

// Close releases the file sink if one is open.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(raw string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
