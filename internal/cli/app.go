package cli

import (
	"context"
	"fmt"

	"roomcast"
	"roomcast/engine"
	"roomcast/internal/config"
	"roomcast/internal/dispatch"
	"roomcast/internal/history"
	"roomcast/pkg/logx"
	"roomcast/progress/amqpsink"
)

// app is the wired runtime shared by the send and schedule commands.
type app struct {
	cfgMgr *config.Manager
	cfg    *config.Config
	logSvc *logx.Service
	log    logx.Logger

	eng    *roomcast.Engine
	policy policySetter
	hist   history.Store
	sink   *amqpsink.Sink
	exec   *dispatch.Executor
}

type policySetter interface {
	SetPolicy(engine.Policy)
}

func openApp(ctx context.Context, configPath string, withEngine bool) (*app, error) {
	mgr := config.NewManager(configPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logSvc, log := logx.New(cfg.Logging.Logx())
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	a := &app{cfgMgr: mgr, cfg: cfg, logSvc: logSvc, log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.hist, err = history.Open(history.Config{Driver: cfg.History.Driver, Path: cfg.History.Path}, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if !withEngine {
		ok = true
		return a, nil
	}

	timing, err := cfg.Timing.Injector()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Timing.Policy()
	if err != nil {
		return nil, err
	}
	a.eng, err = roomcast.New(roomcast.Options{
		Signature: cfg.Target.Signature,
		Timing:    &timing,
		Policy:    &policy,
		Log:       log,
	})
	if err != nil {
		return nil, err
	}
	a.policy = a.eng

	opts := dispatch.Options{
		History:          a.hist,
		MaxRunsPerMinute: cfg.Dispatch.MaxRunsPerMinute,
		Log:              log,
	}
	if cfg.AMQP.Enabled {
		delay, _ := config.ParseDurationOrDefault("amqp.retry_delay", cfg.AMQP.RetryDelay, 0)
		a.sink, err = amqpsink.Dial(ctx, amqpsink.Config{
			URL:           cfg.AMQP.URL,
			Exchange:      cfg.AMQP.Exchange,
			RetryAttempts: cfg.AMQP.RetryAttempts,
			RetryDelay:    delay,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("amqp: %w", err)
		}
		opts.Bus = a.sink
	}

	reg := dispatch.NewRegistry()
	if err := dispatch.RegisterSend(reg, a.eng); err != nil {
		return nil, err
	}
	a.exec = dispatch.NewExecutor(reg, opts)

	ok = true
	return a, nil
}

// apply pushes a reloaded config into the live components. Injector timings
// and the target signature take effect on the next start.
func (a *app) apply(cfg *config.Config) {
	a.cfg = cfg
	if a.logSvc != nil {
		a.logSvc.Apply(cfg.Logging.Logx())
	}
	if a.policy != nil {
		policy, err := cfg.Timing.Policy()
		if err != nil {
			a.log.Warn("reloaded timing rejected; keeping the current engine policy", logx.Err(err))
		} else {
			a.policy.SetPolicy(policy)
		}
	}
	if a.exec != nil {
		a.exec.SetRateLimit(cfg.Dispatch.MaxRunsPerMinute)
	}
}

func (a *app) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.log.Warn("amqp close failed", logx.Err(err))
		}
	}
	if a.hist != nil {
		_ = a.hist.Close()
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
}
