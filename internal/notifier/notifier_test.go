package notifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"ticketwatch/internal/clock"
	"ticketwatch/internal/status"
	"ticketwatch/internal/storage"
	"ticketwatch/internal/transport"
	"ticketwatch/pkg/logx"
)

type sent struct {
	to   transport.ChatTarget
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	msgs []sent
}

func (f *fakeSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return transport.MessageRef{}, f.err
	}
	f.msgs = append(f.msgs, sent{to: to, text: text})
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.msgs)}, nil
}

type harness struct {
	n      *Notifier
	sender *fakeSender
	clk    *clock.Fake
	store  storage.Store
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	if cfg.Target.ChatID == 0 {
		cfg.Target = transport.ChatTarget{ChatID: -100123}
	}
	clk := clock.NewFake(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC))
	sender := &fakeSender{}
	n := New(cfg, sender, storage.NewThrottleStore(st, logx.Nop()), clk, logx.Nop())
	n.limiter = rate.NewLimiter(rate.Inf, 1)
	return &harness{n: n, sender: sender, clk: clk, store: st}
}

func TestFirstNotificationAlwaysSends(t *testing.T) {
	h := newHarness(t, Config{EventURL: "https://example.test/events"})
	ctx := context.Background()

	if got := h.n.Send(ctx, status.Available, false); got != ResultSent {
		t.Fatalf("Send = %v, want sent", got)
	}
	if len(h.sender.msgs) != 1 {
		t.Fatalf("msgs = %+v", h.sender.msgs)
	}
	want := "Potential ticket availability detected for the New Year event! Check here: https://example.test/events"
	if h.sender.msgs[0].text != want {
		t.Fatalf("text = %q", h.sender.msgs[0].text)
	}
	at, ok, err := h.store.GetLastNotified(ctx)
	if err != nil || !ok || !at.Equal(h.clk.Now()) {
		t.Fatalf("throttle = %v, %v, %v", at, ok, err)
	}
}

func TestHeartbeatSuppressedWithinCooldown(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if !h.n.Notify(ctx, status.NotAvailable, false) {
		t.Fatal("first notification should send")
	}
	h.clk.Advance(29 * time.Minute)
	if h.n.Notify(ctx, status.NotAvailable, true) {
		t.Fatal("forced notification inside the cooldown must not deliver")
	}
	if len(h.sender.msgs) != 1 {
		t.Fatalf("msgs = %d", len(h.sender.msgs))
	}
}

func TestHeartbeatDeliveredAfterCooldown(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	if !h.n.Notify(ctx, status.NotAvailable, false) {
		t.Fatal("first notification should send")
	}
	h.clk.Advance(30 * time.Minute)
	if !h.n.Notify(ctx, status.NotAvailable, true) {
		t.Fatal("forced notification after the cooldown should deliver")
	}
	at, ok, _ := h.store.GetLastNotified(ctx)
	if !ok || !at.Equal(h.clk.Now()) {
		t.Fatalf("throttle not updated: %v", at)
	}
	if len(h.sender.msgs) != 2 || h.sender.msgs[1].text != DefaultNotAvailableText {
		t.Fatalf("msgs = %+v", h.sender.msgs)
	}
}

func TestFailedDeliveryKeepsThrottle(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	h.sender.err = errors.New("401 unauthorized")

	if got := h.n.Send(ctx, status.Available, false); got != ResultFailed {
		t.Fatalf("Send = %v, want failed", got)
	}
	if _, ok, _ := h.store.GetLastNotified(ctx); ok {
		t.Fatal("failed delivery must not update the throttle")
	}

	h.sender.err = nil
	if got := h.n.Send(ctx, status.Available, false); got != ResultSent {
		t.Fatalf("retry Send = %v, want sent", got)
	}
}

func TestCorruptThrottleIsEligible(t *testing.T) {
	dir := t.TempDir()
	st, err := storage.Open(storage.Config{Driver: "file", Path: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	clk := clock.NewFake(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC))
	n := New(Config{Target: transport.ChatTarget{ChatID: 1}}, &fakeSender{}, storage.NewThrottleStore(st, logx.Nop()), clk, logx.Nop())
	ctx := context.Background()

	if err := st.PutLastNotified(ctx, clk.Now()); err != nil {
		t.Fatal(err)
	}
	if n.Eligible(ctx, clk.Now().Add(time.Minute)) {
		t.Fatal("recent send should not be eligible")
	}

	if err := os.WriteFile(filepath.Join(dir, "last_notification.txt"), []byte("yesterday-ish"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !n.Eligible(ctx, clk.Now().Add(time.Minute)) {
		t.Fatal("corrupt timestamp should read as no prior notification")
	}
}

func TestCooldownHeldInMemoryWithoutStore(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC))
	sender := &fakeSender{}
	for name, throttle := range map[string]*storage.ThrottleStore{
		"nil throttle": nil,
		"no store":     storage.NewThrottleStore(nil, logx.Nop()),
	} {
		t.Run(name, func(t *testing.T) {
			sender.msgs = nil
			n := New(Config{Target: transport.ChatTarget{ChatID: 1}}, sender, throttle, clk, logx.Nop())
			n.limiter = rate.NewLimiter(rate.Inf, 1)
			ctx := context.Background()

			if !n.Notify(ctx, status.NotAvailable, false) {
				t.Fatal("first notification should send")
			}
			if n.Notify(ctx, status.NotAvailable, true) || n.Notify(ctx, status.NotAvailable, true) {
				t.Fatal("heartbeats inside the cooldown must not deliver")
			}
			clk.Advance(DefaultCooldown)
			if !n.Notify(ctx, status.NotAvailable, true) {
				t.Fatal("heartbeat after the cooldown should deliver")
			}
			if len(sender.msgs) != 2 {
				t.Fatalf("msgs = %d, want 2", len(sender.msgs))
			}
		})
	}
}

func TestNoTargetFails(t *testing.T) {
	n := New(Config{}, nil, nil, clock.NewFake(time.Now()), logx.Nop())
	if got := n.Send(context.Background(), status.Available, false); got != ResultFailed {
		t.Fatalf("Send = %v, want failed", got)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()
	n := New(Config{EventURL: "u"}, nil, nil, nil, logx.Nop())
	if got := n.Format(status.NotAvailable); got != "Tickets are currently not available." {
		t.Fatalf("not available = %q", got)
	}
	if got := n.Format(status.Error); got != "Status: Error" {
		t.Fatalf("fallback = %q", got)
	}

	custom := New(Config{Templates: Templates{Fallback: "[{status}] see {url}"}, EventURL: "https://x"}, nil, nil, nil, logx.Nop())
	if got := custom.Format(status.Error); got != "[Error] see https://x" {
		t.Fatalf("custom = %q", got)
	}
}

func TestLegacyLatin1(t *testing.T) {
	h := newHarness(t, Config{LegacyLatin1: true, Templates: Templates{NotAvailable: "Bilet yoxdur: ç"}})
	if !h.n.Notify(context.Background(), status.NotAvailable, false) {
		t.Fatal("expected send")
	}
	got := h.sender.msgs[0].text
	if got == "Bilet yoxdur: ç" {
		t.Fatal("expected re-encoded text")
	}
	if latin1Reinterpret("plain ascii") != "plain ascii" {
		t.Fatal("ascii must be unchanged")
	}
	if latin1Reinterpret("ç") != "Ã§" {
		t.Fatalf("ç -> %q", latin1Reinterpret("ç"))
	}
}
