package monitor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"ticketwatch/internal/clock"
	"ticketwatch/internal/status"
	"ticketwatch/pkg/logx"
)

// Notifier delivers a status message subject to its own cooldown.
// It reports whether a message was actually delivered.
type Notifier interface {
	Notify(ctx context.Context, st status.Status, force bool) bool
}

// StatusStore persists the last observed status. Implementations absorb
// their own failures.
type StatusStore interface {
	Read(ctx context.Context) (status.Status, bool)
	Write(ctx context.Context, st status.Status)
}

// Snapshot is a point-in-time view of the loop for operators.
type Snapshot struct {
	State             State
	LastStatus        status.Status
	HasLastStatus     bool
	LastCheck         time.Time
	ConsecutiveErrors int
	NextCheck         time.Time
}

// Deps are the collaborators of a Monitor. Fetcher and Notifier are
// required; the rest fall back to defaults.
type Deps struct {
	Fetcher  PageFetcher
	Keywords []string
	Notifier Notifier
	Store    StatusStore
	Clock    clock.Clock
	Policy   Policy
	Log      logx.Logger

	// OnCheck, if set, is called after every completed iteration.
	OnCheck func(Snapshot)
}

// Monitor runs the poll loop. It is safe to call Snapshot while Run is active.
type Monitor struct {
	fetcher  PageFetcher
	keywords []string
	notifier Notifier
	store    StatusStore
	clock    clock.Clock
	policy   Policy
	log      logx.Logger
	onCheck  func(Snapshot)

	mu   sync.Mutex
	snap Snapshot
}

// New validates d and fills defaults (real clock, default keywords, no-op log).
func New(d Deps) (*Monitor, error) {
	if d.Fetcher == nil {
		return nil, fmt.Errorf("monitor: fetcher is required")
	}
	if d.Notifier == nil {
		return nil, fmt.Errorf("monitor: notifier is required")
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if len(d.Keywords) == 0 {
		d.Keywords = DefaultKeywords
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	return &Monitor{
		fetcher:  d.Fetcher,
		keywords: append([]string(nil), d.Keywords...),
		notifier: d.Notifier,
		store:    d.Store,
		clock:    d.Clock,
		policy:   d.Policy,
		log:      d.Log,
		onCheck:  d.OnCheck,
	}, nil
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.snap.State = s
	m.mu.Unlock()
}

// Run loops until ctx is canceled (returns nil) or the consecutive error
// limit is reached (returns ErrTooManyErrors).
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("starting ticket monitor", logx.Int("keywords", len(m.keywords)))

	var (
		last    status.Status
		hasLast bool
	)
	if m.store != nil {
		last, hasLast = m.store.Read(ctx)
	}
	m.mu.Lock()
	m.snap = Snapshot{State: StateIdle, LastStatus: last, HasLastStatus: hasLast}
	m.mu.Unlock()

	errCount := 0
	for {
		if ctx.Err() != nil {
			m.log.Info("monitor stopped")
			return nil
		}

		step := m.runIteration(ctx, &last, &hasLast, errCount)
		if ctx.Err() != nil {
			m.log.Info("monitor stopped")
			return nil
		}
		errCount = step.ErrCount

		now := m.clock.Now()
		m.mu.Lock()
		m.snap.ConsecutiveErrors = errCount
		m.snap.LastCheck = now
		if !step.Terminate {
			m.snap.NextCheck = now.Add(step.Sleep)
		}
		snap := m.snap
		m.mu.Unlock()

		if step.Terminate {
			m.setState(StateTerminated)
			m.log.Critical("too many consecutive errors; exiting", logx.Int("consecutive_errors", errCount))
			if m.onCheck != nil {
				snap.State = StateTerminated
				m.onCheck(snap)
			}
			return ErrTooManyErrors
		}
		if m.onCheck != nil {
			m.onCheck(snap)
		}

		if errCount > 0 {
			m.log.Warn("backing off after error", logx.Int("consecutive_errors", errCount), logx.Duration("sleep", step.Sleep))
		} else {
			m.log.Debug("sleeping until next check", logx.Duration("sleep", step.Sleep))
		}
		m.setState(StateSleeping)
		if err := m.clock.Sleep(ctx, step.Sleep); err != nil {
			m.log.Info("monitor stopped")
			return nil
		}
		m.setState(StateIdle)
	}
}

// CheckOnce fetches and classifies without notifying or persisting.
func (m *Monitor) CheckOnce(ctx context.Context) (status.Status, error) {
	return Check(ctx, m.fetcher, m.keywords)
}

func (m *Monitor) runIteration(ctx context.Context, last *status.Status, hasLast *bool, errCount int) (step Step) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("unexpected error in main loop", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			step = Recover(errCount, m.policy)
		}
	}()

	m.setState(StateFetching)
	current, err := m.check(ctx)
	if ctx.Err() != nil {
		return Step{ErrCount: errCount}
	}
	if err != nil {
		m.log.Error("error checking ticket availability", logx.Err(err))
	}
	m.log.Info("current status", logx.String("status", current.Label()))

	m.setState(StateComparing)
	d := Compare(*last, *hasLast, current)

	m.setState(StateNotifying)
	if d.Changed {
		from := "none"
		if *hasLast {
			from = last.Label()
		}
		m.log.Info("status changed", logx.String("from", from), logx.String("to", current.Label()))
		m.notifier.Notify(ctx, current, false)
		if m.store != nil {
			m.store.Write(ctx, current)
		}
		*last, *hasLast = current, true
		m.mu.Lock()
		m.snap.LastStatus, m.snap.HasLastStatus = current, true
		m.mu.Unlock()
	} else {
		if m.notifier.Notify(ctx, current, true) {
			m.log.Debug("status unchanged; periodic update sent")
		}
	}

	return Advance(errCount, current, m.policy)
}

// check runs Fetching then Classifying.
func (m *Monitor) check(ctx context.Context) (status.Status, error) {
	return Check(ctx, stateFetcher{m}, m.keywords)
}

// stateFetcher moves the loop to Classifying once the page is in hand.
type stateFetcher struct{ m *Monitor }

func (s stateFetcher) Fetch(ctx context.Context) (string, error) {
	text, err := s.m.fetcher.Fetch(ctx)
	if err == nil {
		s.m.setState(StateClassifying)
	}
	return text, err
}
