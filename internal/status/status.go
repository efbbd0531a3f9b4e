// Package status defines the three-valued ticket availability status.
package status

import (
	"fmt"
	"strings"
)

// Status is always exactly one of Available, NotAvailable or Error.
// The string value is the token persisted by the status store.
type Status string

const (
	Available    Status = "available"
	NotAvailable Status = "not_available"
	Error        Status = "error"
)

// Label is the human-readable name used in logs and fallback messages.
func (s Status) Label() string {
	switch s {
	case Available:
		return "Tickets Potentially Available"
	case NotAvailable:
		return "Tickets Not Available"
	case Error:
		return "Error"
	default:
		return string(s)
	}
}

func (s Status) Valid() bool {
	return s == Available || s == NotAvailable || s == Error
}

// Parse decodes a persisted status. Besides the canonical tokens it accepts
// the labels, so state files written with labels keep working.
func Parse(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case string(Available), strings.ToLower(Available.Label()):
		return Available, nil
	case string(NotAvailable), "notavailable", strings.ToLower(NotAvailable.Label()):
		return NotAvailable, nil
	case string(Error):
		return Error, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}
