package storage

import (
	"context"
	"sync"
	"time"

	"ticketwatch/internal/status"
	"ticketwatch/pkg/logx"
)

// StatusStore wraps a Store for the last observed status.
// Failures are logged and absorbed: reads fall back to "no prior status",
// writes are dropped.
type StatusStore struct {
	st  Store
	log logx.Logger
}

func NewStatusStore(st Store, log logx.Logger) *StatusStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &StatusStore{st: st, log: log}
}

// Read returns the persisted status, or ok=false if none is usable.
func (s *StatusStore) Read(ctx context.Context) (status.Status, bool) {
	if s == nil || s.st == nil {
		return "", false
	}
	raw, ok, err := s.st.GetStatus(ctx)
	if err != nil {
		s.log.Error("error reading status", logx.Err(err))
		return "", false
	}
	if !ok {
		s.log.Warn("no previous status stored")
		return "", false
	}
	st, err := status.Parse(raw)
	if err != nil {
		s.log.Error("stored status is corrupt; ignoring", logx.Err(err))
		return "", false
	}
	s.log.Info("read last status", logx.String("status", string(st)))
	return st, true
}

func (s *StatusStore) Write(ctx context.Context, st status.Status) {
	if s == nil || s.st == nil {
		return
	}
	if err := s.st.PutStatus(ctx, string(st)); err != nil {
		s.log.Error("error writing status", logx.String("status", string(st)), logx.Err(err))
		return
	}
	s.log.Info("wrote current status", logx.String("status", string(st)))
}

// ThrottleStore wraps a Store for the time of the last delivered notification.
// Without a backing Store the time is kept in memory, so the cooldown still
// holds for the life of the process.
type ThrottleStore struct {
	st  Store
	log logx.Logger

	mu    sync.Mutex
	mem   time.Time
	memOK bool
}

func NewThrottleStore(st Store, log logx.Logger) *ThrottleStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ThrottleStore{st: st, log: log}
}

func (t *ThrottleStore) Read(ctx context.Context) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.st == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.mem, t.memOK
	}
	at, ok, err := t.st.GetLastNotified(ctx)
	if err != nil {
		t.log.Error("error reading last notification time", logx.Err(err))
		return time.Time{}, false
	}
	return at, ok
}

func (t *ThrottleStore) Write(ctx context.Context, at time.Time) {
	if t == nil {
		return
	}
	if t.st == nil {
		t.mu.Lock()
		t.mem, t.memOK = at, true
		t.mu.Unlock()
		return
	}
	if err := t.st.PutLastNotified(ctx, at); err != nil {
		t.log.Error("error writing last notification time", logx.Err(err))
	}
}
