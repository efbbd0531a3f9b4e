package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ticketwatch/pkg/logx"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const (
	keyStatus       = "last_status"
	keyLastNotified = "last_notification"
)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = time.Second
	}
	_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) GetStatus(ctx context.Context) (string, bool, error) {
	v, ok, err := s.get(ctx, keyStatus)
	if err != nil || !ok {
		return "", false, err
	}
	if strings.TrimSpace(v) == "" {
		return "", false, fmt.Errorf("%w: empty status row", ErrCorrupt)
	}
	return strings.TrimSpace(v), true, nil
}

func (s *sqliteStore) PutStatus(ctx context.Context, status string) error {
	return s.put(ctx, keyStatus, status)
}

func (s *sqliteStore) GetLastNotified(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := s.get(ctx, keyLastNotified)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	at, err := parseTimestamp(strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return at, true, nil
}

func (s *sqliteStore) PutLastNotified(ctx context.Context, at time.Time) error {
	return s.put(ctx, keyLastNotified, at.Format(time.RFC3339Nano))
}

func (s *sqliteStore) get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrDisabled
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqliteStore) put(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err == nil {
		s.log.Debug("state written", logx.String("key", key))
	}
	return err
}
