package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ticketwatch/internal/config"
	"ticketwatch/internal/monitor"
	"ticketwatch/internal/notifier"
	"ticketwatch/internal/storage"
	"ticketwatch/internal/transport"
	telegram "ticketwatch/internal/transport/telegram/adapter"
	"ticketwatch/pkg/logx"
)

const defaultSQLiteFile = "ticketwatch.db"

func mapLoggingConfig(cfg *config.Config, chatID int64) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     chatID,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// mapStorageConfig returns enabled=false for driver "none".
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "none":
		return storage.Config{}, false, nil
	case "", "file":
		if path == "" {
			path = "."
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			path = defaultSQLiteFile
		} else if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			path = filepath.Join(path, defaultSQLiteFile)
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{Token: cfg.Telegram.Token, PollTimeout: poll}, nil
}

func mapFetcherConfig(cfg *config.Config) (monitor.FetcherConfig, error) {
	timeout, err := config.ParseDurationOrDefault("monitor.timeout", cfg.Monitor.Timeout, monitor.DefaultFetchTimeout)
	if err != nil {
		return monitor.FetcherConfig{}, err
	}
	return monitor.FetcherConfig{
		URL:       strings.TrimSpace(cfg.Monitor.URL),
		UserAgent: cfg.Monitor.UserAgent,
		Timeout:   timeout,
	}, nil
}

func mapPolicy(cfg *config.Config) (monitor.Policy, error) {
	p := monitor.DefaultPolicy()
	mc := cfg.Monitor

	var err error
	if p.PollInterval, err = config.ParseDurationOrDefault("monitor.poll_interval", mc.PollInterval, p.PollInterval); err != nil {
		return p, err
	}
	if p.ErrorBackoffBase, err = config.ParseDurationOrDefault("monitor.error_backoff_base", mc.ErrorBackoffBase, p.ErrorBackoffBase); err != nil {
		return p, err
	}
	if p.ErrorBackoffMax, err = config.ParseDurationOrDefault("monitor.error_backoff_max", mc.ErrorBackoffMax, p.ErrorBackoffMax); err != nil {
		return p, err
	}
	if p.PanicCooldown, err = config.ParseDurationOrDefault("monitor.panic_cooldown", mc.PanicCooldown, p.PanicCooldown); err != nil {
		return p, err
	}
	if mc.MaxConsecutiveErrors > 0 {
		p.MaxConsecutiveErrors = mc.MaxConsecutiveErrors
	}
	if p.ErrorBackoffMax < p.ErrorBackoffBase {
		return p, fmt.Errorf("monitor.error_backoff_max (%s) must be >= error_backoff_base (%s)", p.ErrorBackoffMax, p.ErrorBackoffBase)
	}
	return p, nil
}

func mapNotifierConfig(cfg *config.Config, chatID int64) (notifier.Config, error) {
	nc := cfg.Notify
	cooldown, err := config.ParseDurationOrDefault("notify.cooldown", nc.Cooldown, notifier.DefaultCooldown)
	if err != nil {
		return notifier.Config{}, err
	}
	sendTimeout, err := config.ParseDurationOrDefault("notify.send_timeout", nc.SendTimeout, notifier.DefaultSendTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Target:      transport.ChatTarget{ChatID: chatID, ThreadID: cfg.Telegram.ThreadID},
		Cooldown:    cooldown,
		SendTimeout: sendTimeout,
		EventURL:    strings.TrimSpace(cfg.Monitor.URL),
		Templates: notifier.Templates{
			Available:    nc.AvailableText,
			NotAvailable: nc.NotAvailableText,
			Fallback:     nc.FallbackText,
		},
		LegacyLatin1: nc.LegacyLatin1,
	}, nil
}
