package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ticketwatch/internal/clock"
	"ticketwatch/internal/config"
	"ticketwatch/internal/monitor"
	"ticketwatch/internal/notifier"
	"ticketwatch/internal/runtime/supervisor"
	"ticketwatch/internal/status"
	"ticketwatch/internal/storage"
	"ticketwatch/internal/transport"
	telegram "ticketwatch/internal/transport/telegram/adapter"
	"ticketwatch/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter transport.Adapter
	target  transport.ChatTarget
	notif   *notifier.Notifier
	mon     *monitor.Monitor
	sd      *sdNotifier

	commands bool
	updates  chan transport.Update
}

// New loads the config at cfgPath and wires every component. Nothing is
// started until Run or RunOnce.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	chatID, err := cfg.ChatID()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram"))
	tcfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(tcfg, bootLog)
	if err != nil {
		return nil, err
	}

	logSvc, root := logx.New(mapLoggingConfig(cfg, chatID), ad)
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	a, err := build(cfg, chatID, ad, root)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	a.cfgm = cfgm
	a.logs = logSvc
	a.log = log
	return a, nil
}

// build wires storage, notifier and monitor around an existing sender.
func build(cfg *config.Config, chatID int64, ad transport.Adapter, root logx.Logger) (*App, error) {
	var store storage.Store
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if enabled {
		st, err := storage.Open(sc, root.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		root.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	} else {
		root.Warn("storage disabled; status and cooldown are not persisted")
	}

	closeOnErr := func(err error) (*App, error) {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	ncfg, err := mapNotifierConfig(cfg, chatID)
	if err != nil {
		return closeOnErr(err)
	}
	clk := clock.Real{}
	notif := notifier.New(ncfg, ad,
		storage.NewThrottleStore(store, root.With(logx.String("comp", "throttle"))),
		clk, root.With(logx.String("comp", "notifier")))

	fcfg, err := mapFetcherConfig(cfg)
	if err != nil {
		return closeOnErr(err)
	}
	policy, err := mapPolicy(cfg)
	if err != nil {
		return closeOnErr(err)
	}

	a := &App{
		log:      root.With(logx.String("comp", "app")),
		store:    store,
		adapter:  ad,
		target:   ncfg.Target,
		notif:    notif,
		commands: cfg.Telegram.CommandsEnabled(),
		updates:  make(chan transport.Update, 64),
	}
	if cfg.Systemd.NotifyEnabled() {
		a.sd = newSDNotifier(root.With(logx.String("comp", "systemd")))
	}

	mon, err := monitor.New(monitor.Deps{
		Fetcher:  monitor.NewFetcher(fcfg, root.With(logx.String("comp", "fetcher"))),
		Keywords: cfg.Monitor.Keywords,
		Notifier: notif,
		Store:    storage.NewStatusStore(store, root.With(logx.String("comp", "status"))),
		Clock:    clk,
		Policy:   policy,
		Log:      root.With(logx.String("comp", "monitor")),
		OnCheck:  a.onCheck,
	})
	if err != nil {
		return closeOnErr(err)
	}
	a.mon = mon
	return a, nil
}

// Run blocks until ctx is canceled (returns nil) or the monitor gives up
// (returns an error wrapping monitor.ErrTooManyErrors).
func (a *App) Run(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	sup := a.sup

	if a.commands {
		if err := a.adapter.Start(sup.Context(), a.updates); err != nil {
			sup.Cancel()
			return err
		}
		sup.Go0("commands.dispatch", a.dispatchLoop)
	}

	if a.cfgm != nil {
		sub := a.cfgm.Subscribe(4)
		sup.Go("config.watch", a.cfgm.Watch)
		sup.Go0("config.reload", func(c context.Context) {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub)
		})
	}

	a.sd.Ready()
	sup.Go0("systemd.watchdog", a.sd.Watchdog)

	sup.Go("monitor", func(c context.Context) error {
		defer sup.Cancel()
		return a.mon.Run(c)
	})

	<-sup.Context().Done()
	a.sd.Stopping()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.commands {
		_ = a.adapter.Stop(stopCtx)
	}
	if err := sup.Wait(stopCtx); err != nil && errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("shutdown timed out", logx.Duration("timeout", shutdownTimeout))
	}
	return sup.Err()
}

// RunOnce fetches and classifies the page once. It neither notifies nor
// persists anything.
func (a *App) RunOnce(ctx context.Context) (status.Status, error) {
	return a.mon.CheckOnce(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) onCheck(s monitor.Snapshot) {
	a.sd.Status(statusLine(s))
}

// reloadLoop applies hot-reloaded logging settings. Other sections are only
// read at startup.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			if changed := restartSections(last, next); len(changed) > 0 {
				a.log.Warn("config changed; restart required for these sections",
					logx.String("sections", strings.Join(changed, ",")))
			}
			chatID, _ := next.ChatID()
			if a.logs != nil {
				a.logs.Apply(mapLoggingConfig(next, chatID))
			}
			a.log.Info("logging config applied", logx.String("level", next.Logging.Level))
			last = next
		}
	}
}

// restartSections lists top-level sections other than logging that differ.
func restartSections(prev, next *config.Config) []string {
	if prev == nil || next == nil {
		return nil
	}
	var out []string
	if !equalJSON(prev.Monitor, next.Monitor) {
		out = append(out, "monitor")
	}
	if !equalJSON(prev.Notify, next.Notify) {
		out = append(out, "notify")
	}
	if !equalJSON(prev.Telegram, next.Telegram) {
		out = append(out, "telegram")
	}
	if !equalJSON(prev.Storage, next.Storage) {
		out = append(out, "storage")
	}
	if !equalJSON(prev.Systemd, next.Systemd) {
		out = append(out, "systemd")
	}
	return out
}

func equalJSON(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ab) == string(bb)
}
