package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "15s", "5m", "1h").
// Secrets can be left out of the file and supplied through the environment
// (see ApplyEnv).
type Config struct {
	Monitor  MonitorConfig  `json:"monitor"`
	Notify   NotifyConfig   `json:"notify"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Systemd  SystemdConfig  `json:"systemd"`
}

// MonitorConfig controls fetching, classification and the poll loop.
//
// Defaults (when fields are omitted/zero):
//   - timeout: "15s"
//   - keywords: NEW YEAR, BUY TICKET, EVENT TICKET
//   - poll_interval: "5m"
//   - error_backoff_base: "1m", error_backoff_max: "1h"
//   - max_consecutive_errors: 5
//   - panic_cooldown: "1m"
type MonitorConfig struct {
	URL       string   `json:"url"`
	UserAgent string   `json:"user_agent,omitempty"`
	Timeout   string   `json:"timeout,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`

	PollInterval         string `json:"poll_interval,omitempty"`
	ErrorBackoffBase     string `json:"error_backoff_base,omitempty"`
	ErrorBackoffMax      string `json:"error_backoff_max,omitempty"`
	MaxConsecutiveErrors int    `json:"max_consecutive_errors,omitempty"`
	PanicCooldown        string `json:"panic_cooldown,omitempty"`
}

// NotifyConfig controls message text and the cooldown between deliveries.
// Templates may use {url} and {status}.
type NotifyConfig struct {
	Cooldown         string `json:"cooldown,omitempty"` // default "30m"
	SendTimeout      string `json:"send_timeout,omitempty"`
	AvailableText    string `json:"available_text,omitempty"`
	NotAvailableText string `json:"not_available_text,omitempty"`
	FallbackText     string `json:"fallback_text,omitempty"`
	LegacyLatin1     bool   `json:"legacy_latin1,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the numeric chat (or channel) id notifications go to.
	ChatID   string `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// PollTimeout is the long-poll timeout used for the /status command.
	PollTimeout string `json:"poll_timeout,omitempty"`
	// Commands enables answering /status in the configured chat. Default true.
	Commands *bool `json:"commands,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram mirrors high-severity log lines into the notification chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls where state is persisted.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./state" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) or "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type SystemdConfig struct {
	// Notify sends sd_notify readiness/status/watchdog messages. Default true;
	// it is a no-op when not running under systemd.
	Notify *bool `json:"notify,omitempty"`
}

func (c TelegramConfig) CommandsEnabled() bool { return c.Commands == nil || *c.Commands }

func (c SystemdConfig) NotifyEnabled() bool { return c.Notify == nil || *c.Notify }
