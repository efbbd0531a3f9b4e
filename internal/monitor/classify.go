package monitor

import (
	"context"
	"fmt"
	"strings"

	"ticketwatch/internal/status"
)

// DefaultKeywords are matched case-insensitively against the page text.
var DefaultKeywords = []string{"NEW YEAR", "BUY TICKET", "EVENT TICKET"}

// Classify reports Available if any keyword occurs in text, ignoring case.
// Blank keywords are ignored. Text with no match, including empty text,
// is NotAvailable.
func Classify(text string, keywords []string) status.Status {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return status.Available
		}
	}
	return status.NotAvailable
}

// PageFetcher returns the text of the monitored page.
type PageFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Check fetches and classifies. Any failure, including a panic inside the
// fetcher, is folded into status.Error and returned as err for logging.
func Check(ctx context.Context, f PageFetcher, keywords []string) (st status.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			st, err = status.Error, fmt.Errorf("check panicked: %v", r)
		}
	}()
	text, err := f.Fetch(ctx)
	if err != nil {
		return status.Error, err
	}
	return Classify(text, keywords), nil
}
