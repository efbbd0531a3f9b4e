package app

import (
	"path/filepath"
	"testing"
	"time"

	"ticketwatch/internal/config"
	"ticketwatch/internal/monitor"
	"ticketwatch/internal/notifier"
)

func TestMapPolicyDefaultsAndOverrides(t *testing.T) {
	cfg := config.Default()
	p, err := mapPolicy(cfg)
	if err != nil {
		t.Fatalf("mapPolicy: %v", err)
	}
	if p != monitor.DefaultPolicy() {
		t.Fatalf("policy = %+v, want defaults", p)
	}

	cfg.Monitor.PollInterval = "30s"
	cfg.Monitor.ErrorBackoffBase = "2s"
	cfg.Monitor.ErrorBackoffMax = "10s"
	cfg.Monitor.MaxConsecutiveErrors = 3
	p, err = mapPolicy(cfg)
	if err != nil {
		t.Fatalf("mapPolicy: %v", err)
	}
	if p.PollInterval != 30*time.Second || p.ErrorBackoffBase != 2*time.Second ||
		p.ErrorBackoffMax != 10*time.Second || p.MaxConsecutiveErrors != 3 {
		t.Fatalf("policy = %+v", p)
	}

	cfg.Monitor.ErrorBackoffMax = "1s"
	if _, err := mapPolicy(cfg); err == nil {
		t.Fatalf("expected error when backoff max < base")
	}
}

func TestMapStorageConfig(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		driver  string
		path    string
		want    string
		enabled bool
		wantErr bool
	}{
		{name: "file default", driver: "", path: "", want: ".", enabled: true},
		{name: "file dir", driver: "file", path: dir, want: dir, enabled: true},
		{name: "sqlite in dir", driver: "sqlite", path: dir, want: filepath.Join(dir, defaultSQLiteFile), enabled: true},
		{name: "sqlite file", driver: "sqlite3", path: filepath.Join(dir, "x.db"), want: filepath.Join(dir, "x.db"), enabled: true},
		{name: "none", driver: "none", enabled: false},
		{name: "bogus", driver: "redis", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Driver = tc.driver
			cfg.Storage.Path = tc.path
			sc, enabled, err := mapStorageConfig(cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("mapStorageConfig: %v", err)
			}
			if enabled != tc.enabled {
				t.Fatalf("enabled = %v, want %v", enabled, tc.enabled)
			}
			if enabled && sc.Path != tc.want {
				t.Fatalf("path = %q, want %q", sc.Path, tc.want)
			}
		})
	}
}

func TestMapNotifierConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.ThreadID = 9
	cfg.Notify.Cooldown = "45m"
	cfg.Notify.AvailableText = "go: {url}"

	nc, err := mapNotifierConfig(cfg, -1001)
	if err != nil {
		t.Fatalf("mapNotifierConfig: %v", err)
	}
	if nc.Target.ChatID != -1001 || nc.Target.ThreadID != 9 {
		t.Fatalf("target = %+v", nc.Target)
	}
	if nc.Cooldown != 45*time.Minute {
		t.Fatalf("cooldown = %s", nc.Cooldown)
	}
	if nc.SendTimeout != notifier.DefaultSendTimeout {
		t.Fatalf("send timeout = %s", nc.SendTimeout)
	}
	if nc.EventURL != config.DefaultEventURL || nc.Templates.Available != "go: {url}" {
		t.Fatalf("config = %+v", nc)
	}

	cfg.Notify.Cooldown = "soon"
	if _, err := mapNotifierConfig(cfg, -1001); err == nil {
		t.Fatalf("expected error for bad cooldown")
	}
}

func TestRestartSections(t *testing.T) {
	a := config.Default()
	b := config.Default()
	b.Logging.Level = "INFO"
	if got := restartSections(a, b); len(got) != 0 {
		t.Fatalf("logging-only change reported %v", got)
	}
	b.Monitor.PollInterval = "1m"
	b.Storage.Driver = "sqlite"
	got := restartSections(a, b)
	if len(got) != 2 || got[0] != "monitor" || got[1] != "storage" {
		t.Fatalf("restartSections = %v", got)
	}
}
