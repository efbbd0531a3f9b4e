package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"ticketwatch/pkg/logx"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultFetchTimeout = 15 * time.Second

	maxBodyBytes  = 8 << 20
	debugPreviewN = 500
)

type FetcherConfig struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher downloads the event page and returns its visible text.
// It never retries; retry policy lives in the loop.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
	log    logx.Logger
}

// NewFetcher applies the default User-Agent and timeout when unset.
func NewFetcher(cfg FetcherConfig, log logx.Logger) *Fetcher {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, log: log}
}

func (f *Fetcher) URL() string { return f.cfg.URL }

// Fetch returns the page text. Transport failures and non-2xx responses
// wrap ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	f.log.Info("fetching page", logx.String("url", f.cfg.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	f.log.Debug("response received", logx.Int("status_code", resp.StatusCode))

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", fmt.Errorf("%w: unexpected status %s", ErrNetwork, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	text := pageText(body)
	if f.log.Enabled(logx.LevelDebug) {
		f.log.Debug("page content", logx.String("preview", preview(text, debugPreviewN)))
	}
	return text, nil
}

// pageText returns the document's text content with markup stripped.
// Unparseable input is returned as-is.
func pageText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return string(body)
	}
	return doc.Text()
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
