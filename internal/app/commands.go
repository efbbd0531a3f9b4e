package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketwatch/internal/monitor"
	"ticketwatch/internal/transport"
	"ticketwatch/pkg/logx"
)

const replyTimeout = 10 * time.Second

func (a *App) dispatchLoop(ctx context.Context) {
	log := a.log.With(logx.String("comp", "commands"))
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-a.updates:
			if !ok {
				return
			}
			if up.Message == nil {
				continue
			}
			msg := up.Message
			if msg.ChatID != a.target.ChatID {
				log.Debug("ignoring message from foreign chat", logx.Int64("chat_id", msg.ChatID))
				continue
			}
			if commandName(msg.Text) != "status" {
				continue
			}
			reply := formatStatus(a.mon.Snapshot(), time.Now())
			rctx, cancel := context.WithTimeout(ctx, replyTimeout)
			_, err := a.adapter.SendText(rctx, transport.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}, reply, nil)
			cancel()
			if err != nil {
				log.Warn("status reply failed", logx.Err(err))
			}
		}
	}
}

// commandName returns "status" for "/status", "/status@bot" and "/Status args".
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text[1:])
	if len(name) == 0 {
		return ""
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd)
}

func formatStatus(s monitor.Snapshot, now time.Time) string {
	var b strings.Builder
	last := "unknown"
	if s.HasLastStatus {
		last = s.LastStatus.Label()
	}
	fmt.Fprintf(&b, "Status: %s\n", last)
	if s.LastCheck.IsZero() {
		b.WriteString("Last check: never\n")
	} else {
		fmt.Fprintf(&b, "Last check: %s (%s ago)\n", s.LastCheck.Format(time.RFC3339), now.Sub(s.LastCheck).Round(time.Second))
	}
	if !s.NextCheck.IsZero() && s.State == monitor.StateSleeping {
		fmt.Fprintf(&b, "Next check: in %s\n", s.NextCheck.Sub(now).Round(time.Second))
	}
	fmt.Fprintf(&b, "Consecutive errors: %d\n", s.ConsecutiveErrors)
	fmt.Fprintf(&b, "Loop state: %s", s.State)
	return b.String()
}

// statusLine is the one-line summary reported to systemd.
func statusLine(s monitor.Snapshot) string {
	last := "unknown"
	if s.HasLastStatus {
		last = s.LastStatus.Label()
	}
	if s.ConsecutiveErrors > 0 {
		return fmt.Sprintf("%s; %d consecutive errors", last, s.ConsecutiveErrors)
	}
	return last
}
