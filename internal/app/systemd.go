package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"ticketwatch/pkg/logx"
)

// sdNotifier reports lifecycle to systemd. A nil *sdNotifier is a no-op and
// so is every call when NOTIFY_SOCKET is unset.
type sdNotifier struct {
	log logx.Logger
}

func newSDNotifier(log logx.Logger) *sdNotifier { return &sdNotifier{log: log} }

func (n *sdNotifier) send(state string) {
	if n == nil {
		return
	}
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
		return
	}
	if !sent {
		n.log.Debug("sd_notify not supported", logx.String("state", state))
	}
}

func (n *sdNotifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *sdNotifier) Stopping() { n.send(daemon.SdNotifyStopping) }

func (n *sdNotifier) Status(line string) { n.send("STATUS=" + line) }

// Watchdog pings at half the unit's WatchdogSec until ctx is done.
func (n *sdNotifier) Watchdog(ctx context.Context) {
	if n == nil {
		return
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.log.Warn("systemd watchdog misconfigured", logx.Err(err))
		return
	}
	if interval <= 0 {
		return
	}
	tick := time.NewTicker(interval / 2)
	defer tick.Stop()
	n.log.Info("systemd watchdog enabled", logx.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
