package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ticketwatch/pkg/logx"
)

const DefaultEventURL = "https://fomobaku.com/en/page/events"

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{URL: DefaultEventURL},
		Logging: LoggingConfig{
			Level:   "DEBUG",
			Console: true,
			File:    LoggingFile{Enabled: true, Path: logx.DefaultFilePath},
		},
		Storage: StorageConfig{Driver: "file", Path: "."},
	}
}

// ChatID parses telegram.chat_id.
func (c *Config) ChatID() (int64, error) {
	raw := strings.TrimSpace(c.Telegram.ChatID)
	if raw == "" {
		return 0, fmt.Errorf("telegram.chat_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: must be a numeric chat id: %w", err)
	}
	return id, nil
}

// Validate checks required fields and field formats.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := c.ChatID(); err != nil {
		return err
	}

	u, err := url.Parse(strings.TrimSpace(c.Monitor.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("monitor.url: must be an absolute http(s) URL, got %q", c.Monitor.URL)
	}
	if c.Monitor.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("monitor.max_consecutive_errors must be >= 0")
	}

	durations := map[string]string{
		"monitor.timeout":            c.Monitor.Timeout,
		"monitor.poll_interval":      c.Monitor.PollInterval,
		"monitor.error_backoff_base": c.Monitor.ErrorBackoffBase,
		"monitor.error_backoff_max":  c.Monitor.ErrorBackoffMax,
		"monitor.panic_cooldown":     c.Monitor.PanicCooldown,
		"notify.cooldown":            c.Notify.Cooldown,
		"notify.send_timeout":        c.Notify.SendTimeout,
		"telegram.poll_timeout":      c.Telegram.PollTimeout,
		"storage.busy_timeout":       c.Storage.BusyTimeout,
	}
	for path, raw := range durations {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}

	if !logx.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if !logx.ValidLevel(c.Logging.Telegram.MinLevel) {
		return fmt.Errorf("logging.telegram.min_level: unknown level %q", c.Logging.Telegram.MinLevel)
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "file", "sqlite", "sqlite3", "none":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	return nil
}
