package notifier

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ticketwatch/internal/clock"
	"ticketwatch/internal/status"
	"ticketwatch/internal/storage"
	"ticketwatch/internal/transport"
	"ticketwatch/pkg/logx"
)

// Notifier formats status messages and delivers them to one chat, at most
// once per cooldown.
type Notifier struct {
	cfg      Config
	sender   transport.Sender
	throttle *storage.ThrottleStore
	clock    clock.Clock
	limiter  *rate.Limiter
	log      logx.Logger
}

// New fills unset Config fields with defaults. A nil throttle keeps the last
// delivery time in memory only.
func New(cfg Config, sender transport.Sender, throttle *storage.ThrottleStore, clk clock.Clock, log logx.Logger) *Notifier {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if strings.TrimSpace(cfg.Templates.Available) == "" {
		cfg.Templates.Available = DefaultAvailableText
	}
	if strings.TrimSpace(cfg.Templates.NotAvailable) == "" {
		cfg.Templates.NotAvailable = DefaultNotAvailableText
	}
	if strings.TrimSpace(cfg.Templates.Fallback) == "" {
		cfg.Templates.Fallback = DefaultFallbackText
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if throttle == nil {
		throttle = storage.NewThrottleStore(nil, log)
	}
	return &Notifier{
		cfg:      cfg,
		sender:   sender,
		throttle: throttle,
		clock:    clk,
		// Telegram allows about one message per second per chat.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

// Notify sends the message for st if the cooldown allows it and reports
// whether it was delivered. force marks a heartbeat; it is gated by the
// same cooldown as any other call.
func (n *Notifier) Notify(ctx context.Context, st status.Status, force bool) bool {
	return n.Send(ctx, st, force) == ResultSent
}

// Send is Notify with the full outcome.
func (n *Notifier) Send(ctx context.Context, st status.Status, force bool) Result {
	now := n.clock.Now()
	if !n.Eligible(ctx, now) {
		n.log.Debug("skipping notification due to recent send", logx.String("status", string(st)), logx.Bool("heartbeat", force))
		return ResultSkipped
	}

	if n.sender == nil || n.cfg.Target.ChatID == 0 {
		n.log.Error("error sending notification", logx.Err(ErrNoTarget))
		return ResultFailed
	}

	text := n.Format(st)
	if n.cfg.LegacyLatin1 {
		text = latin1Reinterpret(text)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.log.Error("error sending notification", logx.Err(err))
		return ResultFailed
	}
	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
	_, err := n.sender.SendText(sendCtx, n.cfg.Target, text, nil)
	cancel()
	if err != nil {
		n.log.Error("error sending notification", logx.String("status", string(st)), logx.Err(err))
		return ResultFailed
	}

	n.throttle.Write(ctx, n.clock.Now())
	n.log.Info("notification sent", logx.String("status", string(st)), logx.Bool("heartbeat", force))
	return ResultSent
}

// Eligible reports whether the cooldown has elapsed since the last delivery.
// No recorded delivery is always eligible.
func (n *Notifier) Eligible(ctx context.Context, now time.Time) bool {
	last, ok := n.throttle.Read(ctx)
	if !ok {
		return true
	}
	return now.Sub(last) >= n.cfg.Cooldown
}

// Format renders the message for st.
func (n *Notifier) Format(st status.Status) string {
	tmpl := n.cfg.Templates.Fallback
	switch st {
	case status.Available:
		tmpl = n.cfg.Templates.Available
	case status.NotAvailable:
		tmpl = n.cfg.Templates.NotAvailable
	}
	return strings.NewReplacer("{url}", n.cfg.EventURL, "{status}", st.Label()).Replace(tmpl)
}

// latin1Reinterpret maps every byte of s to the rune with the same value.
// ASCII is unchanged; multi-byte UTF-8 sequences become mojibake.
func latin1Reinterpret(s string) string {
	b := []byte(s)
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
