package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticketwatch/internal/status"
	"ticketwatch/pkg/logx"
)

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) GetStatus(context.Context) (string, bool, error) { return "", false, errBroken }
func (brokenStore) PutStatus(context.Context, string) error         { return errBroken }
func (brokenStore) GetLastNotified(context.Context) (time.Time, bool, error) {
	return time.Time{}, false, errBroken
}
func (brokenStore) PutLastNotified(context.Context, time.Time) error { return errBroken }
func (brokenStore) Close() error                                     { return nil }

func TestStatusStoreMissingOrCorruptIsSentinel(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ss := NewStatusStore(st, logx.Nop())
	ctx := context.Background()

	if _, ok := ss.Read(ctx); ok {
		t.Fatal("missing file should read as no prior status")
	}

	if err := os.WriteFile(filepath.Join(dir, statusFileName), []byte{0xff, 0xfe, 'x'}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := ss.Read(ctx); ok {
		t.Fatal("corrupt file should read as no prior status")
	}

	ss.Write(ctx, status.Available)
	got, ok := ss.Read(ctx)
	if !ok || got != status.Available {
		t.Fatalf("Read() = %q, %v", got, ok)
	}
}

func TestStatusStoreReadsLegacyLabel(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, statusFileName), []byte("Tickets Not Available"), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Path: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok := NewStatusStore(st, logx.Nop()).Read(context.Background())
	if !ok || got != status.NotAvailable {
		t.Fatalf("Read() = %q, %v", got, ok)
	}
}

func TestWrappersAbsorbFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ss := NewStatusStore(brokenStore{}, logx.Nop())
	if _, ok := ss.Read(ctx); ok {
		t.Fatal("expected sentinel on read failure")
	}
	ss.Write(ctx, status.Error)

	ts := NewThrottleStore(brokenStore{}, logx.Nop())
	if _, ok := ts.Read(ctx); ok {
		t.Fatal("expected sentinel on read failure")
	}
	ts.Write(ctx, time.Now())

	var nilStore *StatusStore
	if _, ok := nilStore.Read(ctx); ok {
		t.Fatal("nil store should read as absent")
	}
}

func TestThrottleWithoutStoreKeepsTimeInMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewThrottleStore(nil, logx.Nop())
	if _, ok := ts.Read(ctx); ok {
		t.Fatal("fresh throttle should read as absent")
	}
	at := time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)
	ts.Write(ctx, at)
	got, ok := ts.Read(ctx)
	if !ok || !got.Equal(at) {
		t.Fatalf("Read = %v, %v; want %v", got, ok, at)
	}
}
