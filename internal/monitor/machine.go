package monitor

import (
	"time"

	"ticketwatch/internal/status"
)

// State is the loop phase reported in Snapshot.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateClassifying
	StateComparing
	StateNotifying
	StateSleeping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateClassifying:
		return "classifying"
	case StateComparing:
		return "comparing"
	case StateNotifying:
		return "notifying"
	case StateSleeping:
		return "sleeping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Policy holds the loop's timing and termination knobs.
type Policy struct {
	PollInterval         time.Duration // sleep after a non-error check
	ErrorBackoffBase     time.Duration
	ErrorBackoffMax      time.Duration
	MaxConsecutiveErrors int // <= 0 never terminates
	PanicCooldown        time.Duration
}

// DefaultPolicy polls every 5m, backs off from 1m up to 1h and gives up
// after 5 consecutive errors.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:         5 * time.Minute,
		ErrorBackoffBase:     time.Minute,
		ErrorBackoffMax:      time.Hour,
		MaxConsecutiveErrors: 5,
		PanicCooldown:        time.Minute,
	}
}

// Backoff returns min(base * 2^n, max) for the n-th consecutive error.
func (p Policy) Backoff(n int) time.Duration {
	d := p.ErrorBackoffBase
	for i := 0; i < n; i++ {
		d *= 2
		if p.ErrorBackoffMax > 0 && d >= p.ErrorBackoffMax {
			return p.ErrorBackoffMax
		}
	}
	return d
}

func (p Policy) exhausted(n int) bool {
	return p.MaxConsecutiveErrors > 0 && n >= p.MaxConsecutiveErrors
}

// Decision is the outcome of comparing the current status with the last one.
// Decision is the outcome of comparing a check against the last status.
type Decision struct {
	Changed bool
	// Force marks a heartbeat: the status is unchanged but the notifier may
	// still send once its cooldown has elapsed.
	Force bool
}

// Compare reports a change when there is no prior status or it differs;
// otherwise the check is a heartbeat candidate.
func Compare(last status.Status, hasLast bool, current status.Status) Decision {
	if !hasLast || last != current {
		return Decision{Changed: true}
	}
	return Decision{Force: true}
}

// Step is what the loop does after an iteration.
type Step struct {
	ErrCount  int
	Sleep     time.Duration
	Terminate bool
}

// Advance computes the next step from the status observed this iteration.
// Only a non-error status resets the counter; an unchanged Error keeps counting.
func Advance(errCount int, current status.Status, p Policy) Step {
	if current == status.Error {
		n := errCount + 1
		return Step{ErrCount: n, Sleep: p.Backoff(n), Terminate: p.exhausted(n)}
	}
	return Step{ErrCount: 0, Sleep: p.PollInterval}
}

// Recover is the coarse fallback after an unexpected failure inside an iteration.
func Recover(errCount int, p Policy) Step {
	n := errCount + 1
	return Step{ErrCount: n, Sleep: p.PanicCooldown, Terminate: p.exhausted(n)}
}
