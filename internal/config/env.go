package config

import (
	"os"
	"strings"
)

// Environment variables that override file values.
const (
	EnvToken     = "TICKETWATCH_TELEGRAM_TOKEN"
	EnvChatID    = "TICKETWATCH_TELEGRAM_CHAT_ID"
	EnvURL       = "TICKETWATCH_URL"
	EnvLogLevel  = "TICKETWATCH_LOG_LEVEL"
	EnvStatePath = "TICKETWATCH_STATE_PATH"
)

// ApplyEnv overrides fields from the environment. lookup defaults to os.LookupEnv.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvToken, &c.Telegram.Token)
	set(EnvChatID, &c.Telegram.ChatID)
	set(EnvURL, &c.Monitor.URL)
	set(EnvLogLevel, &c.Logging.Level)
	set(EnvStatePath, &c.Storage.Path)
}
