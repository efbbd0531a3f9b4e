package monitor

import (
	"context"
	"errors"
	"testing"

	"ticketwatch/internal/status"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want status.Status
	}{
		{name: "upper", text: "Celebrate the NEW YEAR with us", want: status.Available},
		{name: "lower", text: "click here to buy ticket now", want: status.Available},
		{name: "mixed", text: "Your Event Ticket awaits", want: status.Available},
		{name: "none", text: "Sold out. See you next season.", want: status.NotAvailable},
		{name: "empty", text: "", want: status.NotAvailable},
		{name: "partial word", text: "buy tickets", want: status.Available},
		{name: "split keyword", text: "NEW\nYEAR", want: status.NotAvailable},
		{name: "garbage", text: "\x00\xff<<<>>>", want: status.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, DefaultKeywords); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresBlankKeywords(t *testing.T) {
	t.Parallel()
	if got := Classify("anything", []string{"", "  "}); got != status.NotAvailable {
		t.Fatalf("blank keywords matched: %q", got)
	}
}

type fetchFunc func(ctx context.Context) (string, error)

func (f fetchFunc) Fetch(ctx context.Context) (string, error) { return f(ctx) }

func TestCheckFoldsFailuresIntoError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := Check(ctx, fetchFunc(func(context.Context) (string, error) {
		return "", errors.New("connection refused")
	}), DefaultKeywords)
	if st != status.Error || err == nil {
		t.Fatalf("fetch error: got %q, %v", st, err)
	}

	st, err = Check(ctx, fetchFunc(func(context.Context) (string, error) {
		panic("parser exploded")
	}), DefaultKeywords)
	if st != status.Error || err == nil {
		t.Fatalf("fetch panic: got %q, %v", st, err)
	}

	st, err = Check(ctx, fetchFunc(func(context.Context) (string, error) {
		return "BUY TICKET", nil
	}), DefaultKeywords)
	if st != status.Available || err != nil {
		t.Fatalf("success: got %q, %v", st, err)
	}
}
