package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" INFO ", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"critical", LevelCritical},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("loud") {
		t.Fatal("expected loud to be rejected")
	}
	if !ValidLevel("") || !ValidLevel("error") {
		t.Fatal("expected empty and error to be accepted")
	}
}

func TestCriticalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))
	log.Critical("giving up", Int("errors", 5))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if m["level"] != zerolog.LevelFatalValue {
		t.Fatalf("level = %v", m["level"])
	}
	if m["comp"] != "test" || m["errors"] != float64(5) {
		t.Fatalf("unexpected fields: %v", m)
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Info("nothing happens")
}

func TestFormatTelegramJSON(t *testing.T) {
	t.Parallel()
	line := `{"level":"fatal","time":"x","message":"too many errors","errors":5,"comp":"monitor"}`
	got := formatTelegramJSON([]byte(line))
	want := "[CRITICAL] too many errors\n- comp=monitor\n- errors=5"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	raw := formatTelegramJSON([]byte("  plain text  \n"))
	if raw != "plain text" {
		t.Fatalf("raw = %q", raw)
	}

	long := formatTelegramJSON([]byte(strings.Repeat("a", 5000)))
	if len(long) != 3500 || !strings.HasSuffix(long, "...") {
		t.Fatalf("expected truncation, got len %d", len(long))
	}
}
