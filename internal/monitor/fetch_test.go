package monitor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticketwatch/internal/status"
	"ticketwatch/pkg/logx"
)

func TestFetcherSendsUserAgentAndExtractsText(t *testing.T) {
	t.Parallel()
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><a class="BUY-TICKET" href="#">Soon</a><p>Event <b>Ticket</b> sales</p></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{URL: srv.URL}, logx.Nop())
	text, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("User-Agent = %q", gotUA)
	}
	if strings.Contains(text, "<p>") || !strings.Contains(text, "Event Ticket sales") {
		t.Fatalf("unexpected text %q", text)
	}
	if strings.Contains(strings.ToLower(text), "buy-ticket") {
		t.Fatalf("attribute values should not be part of the text: %q", text)
	}
	if got := Classify(text, DefaultKeywords); got != status.Available {
		t.Fatalf("Classify = %q", got)
	}
}

func TestFetcherFailuresYieldError(t *testing.T) {
	t.Parallel()

	serverError := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "NEW YEAR maintenance", http.StatusInternalServerError)
	}))
	defer serverError.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	refusedURL := "http://" + ln.Addr().String()
	_ = ln.Close()

	tests := []struct {
		name string
		cfg  FetcherConfig
	}{
		{name: "http 500", cfg: FetcherConfig{URL: serverError.URL}},
		{name: "timeout", cfg: FetcherConfig{URL: slow.URL, Timeout: 50 * time.Millisecond}},
		{name: "connection refused", cfg: FetcherConfig{URL: refusedURL}},
		{name: "bad url", cfg: FetcherConfig{URL: "::not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.cfg, logx.Nop())
			_, err := f.Fetch(context.Background())
			if !errors.Is(err, ErrNetwork) {
				t.Fatalf("Fetch error = %v, want ErrNetwork", err)
			}
			st, _ := Check(context.Background(), f, DefaultKeywords)
			if st != status.Error {
				t.Fatalf("Check = %q, want error", st)
			}
		})
	}
}

func TestPreviewKeepsRunesIntact(t *testing.T) {
	t.Parallel()
	got := preview("ééé", 3)
	if got != "é..." {
		t.Fatalf("preview = %q", got)
	}
	if preview("short", 10) != "short" {
		t.Fatal("short strings should be unchanged")
	}
}
