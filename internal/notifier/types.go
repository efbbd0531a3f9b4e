package notifier

import (
	"errors"
	"time"

	"ticketwatch/internal/transport"
)

var ErrNoTarget = errors.New("notifier: no chat target configured")

const (
	DefaultCooldown    = 30 * time.Minute
	DefaultSendTimeout = 10 * time.Second

	DefaultAvailableText    = "Potential ticket availability detected for the New Year event! Check here: {url}"
	DefaultNotAvailableText = "Tickets are currently not available."
	DefaultFallbackText     = "Status: {status}"
)

// Templates may reference {url} and {status}.
type Templates struct {
	Available    string
	NotAvailable string
	Fallback     string
}

// Config is the notifier's target, timing and message templates.
type Config struct {
	Target      transport.ChatTarget
	Cooldown    time.Duration
	SendTimeout time.Duration
	EventURL    string
	Templates   Templates

	// LegacyLatin1 re-reads the UTF-8 bytes of each message as Latin-1
	// before sending, reproducing what older deployments delivered.
	LegacyLatin1 bool
}

// Result describes what a Notify call did.
type Result int

const (
	ResultSkipped Result = iota
	ResultSent
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultFailed:
		return "failed"
	default:
		return "skipped"
	}
}
