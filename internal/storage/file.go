package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ticketwatch/pkg/logx"
)

const (
	statusFileName       = "last_status.txt"
	notificationFileName = "last_notification.txt"
)

// fileStore keeps each value in its own plain-text file.
//
// Files:
//   - <dir>/last_status.txt        (status token)
//   - <dir>/last_notification.txt  (RFC 3339 timestamp)
//
// Writes go to a temp file that is renamed over the target.
type fileStore struct {
	log logx.Logger

	mu               sync.Mutex
	statusPath       string
	notificationPath string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{
		log:              log,
		statusPath:       filepath.Join(dir, statusFileName),
		notificationPath: filepath.Join(dir, notificationFileName),
	}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) GetStatus(ctx context.Context) (string, bool, error) {
	_ = ctx
	raw, ok, err := s.read(s.statusPath)
	if err != nil || !ok {
		return "", false, err
	}
	if raw == "" {
		return "", false, fmt.Errorf("%w: %s is empty", ErrCorrupt, s.statusPath)
	}
	return raw, true, nil
}

func (s *fileStore) PutStatus(ctx context.Context, status string) error {
	_ = ctx
	return s.write(s.statusPath, status)
}

func (s *fileStore) GetLastNotified(ctx context.Context) (time.Time, bool, error) {
	_ = ctx
	raw, ok, err := s.read(s.notificationPath)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err := parseTimestamp(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.notificationPath, err)
	}
	return at, true, nil
}

func (s *fileStore) PutLastNotified(ctx context.Context, at time.Time) error {
	_ = ctx
	return s.write(s.notificationPath, at.Format(time.RFC3339Nano))
}

func (s *fileStore) read(path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(b)), true, nil
}

func (s *fileStore) write(path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	s.log.Debug("state written", logx.String("path", path))
	return nil
}

// parseTimestamp accepts RFC 3339 and the zone-less ISO-8601 form
// (2006-01-02T15:04:05.999999) that Python's isoformat() produces.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
