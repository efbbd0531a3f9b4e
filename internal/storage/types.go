package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	// ErrCorrupt is returned by readers when the persisted value cannot be decoded.
	ErrCorrupt = errors.New("storage: corrupt value")
)

// Config configures storage.
//
// Path is a directory for the file driver and a database file for sqlite.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the monitor and the notifier.
//
// Getters return ok=false when nothing has been written yet.
type Store interface {
	GetStatus(ctx context.Context) (status string, ok bool, err error)
	PutStatus(ctx context.Context, status string) error
	GetLastNotified(ctx context.Context) (at time.Time, ok bool, err error)
	PutLastNotified(ctx context.Context, at time.Time) error
	Close() error
}
