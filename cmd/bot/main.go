package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"boardbot/internal/access"
	"boardbot/internal/admin"
	"boardbot/internal/config"
	"boardbot/internal/posting"
	"boardbot/internal/services/logging"
	"boardbot/internal/services/stats"
	"boardbot/internal/storage"
	"boardbot/internal/transport/telegram"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logSvc, log := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logging.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	defer logSvc.Close()

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.BusyTimeout(),
	}, log.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := access.NewResolver(cfg.Telegram.SuperadminIDs)
	admins := admin.NewService(store, admin.Defaults{
		RateLimitSeconds: cfg.DefaultRateLimitSeconds(),
		MaxTextLength:    cfg.Boards.DefaultMaxTextLength,
	}, log.With().Str("component", "admin").Logger())

	bot, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.PollTimeout(),
		Locale:      cfg.Locale,
	}, telegram.Deps{
		Store:    store,
		Resolver: resolver,
		Admins:   admins,
		Flood: telegram.FloodConfig{
			MsgsPerSec: cfg.Limits.UserMsgsPerSec,
			Burst:      cfg.Limits.UserBurst,
		},
	}, log.With().Str("component", "telegram").Logger())
	if err != nil {
		return err
	}

	engine := posting.NewEngine(store, bot, resolver, log.With().Str("component", "posting").Logger())
	bot.SetEngine(engine)

	if cfg.Stats.Enabled {
		reporter := stats.New(store, cfg.Stats.Schedule, log.With().Str("component", "stats").Logger())
		if err := reporter.Start(); err != nil {
			return err
		}
		defer reporter.Stop()
	}

	// Log level (and only that) follows the config file at runtime.
	watcher := config.NewWatcher(cfgPath, log.With().Str("component", "config").Logger())
	go func() {
		_ = watcher.Run(ctx, func(next *config.Config) {
			logSvc.Apply(logging.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console,
				File: logging.FileConfig{
					Enabled: next.Logging.File.Enabled,
					Path:    next.Logging.File.Path,
				},
			})
		})
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()

	bot.Start(ctx)

	// Let in-flight replaced-message deletions finish before closing.
	engine.Wait()
	return nil
}
