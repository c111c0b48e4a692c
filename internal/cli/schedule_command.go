package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomcast/internal/config"
	"roomcast/internal/dispatch"
	"roomcast/internal/schedule"
	"roomcast/pkg/logx"
	"roomcast/progress"
)

func runSchedule(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	configPath := fs.String("config", "roomcast.yaml", "config file (yaml or json)")
	tz := fs.String("tz", "", "IANA time zone for cron specs (default: local)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := time.Local
	if *tz != "" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			return fmt.Errorf("--tz: %w", err)
		}
		loc = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, *configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := schedule.New(a.log, loc)
	if err := registerSchedules(sched, a, *configPath, a.cfg.Schedules); err != nil {
		return err
	}
	if len(sched.Names()) == 0 {
		return errors.New("no schedules configured")
	}
	sched.Start(ctx)
	defer sched.Stop()

	updates := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(updates)
	go func() {
		if err := a.cfgMgr.Watch(ctx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutting down")
			return nil
		case cfg := <-updates:
			a.apply(cfg)
			sched.RemoveAll()
			if err := registerSchedules(sched, a, *configPath, cfg.Schedules); err != nil {
				a.log.Error("schedules not reloaded", logx.Err(err))
			}
		}
	}
}

func registerSchedules(s *schedule.Scheduler, a *app, configPath string, defs []config.ScheduleConfig) error {
	for _, def := range defs {
		spec, err := schedule.ParseSpec(def.Spec)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", def.Name, err)
		}
		if spec.Kind == schedule.KindOnce && spec.Next(time.Now()).IsZero() {
			a.log.Warn("one-shot schedule already passed; skipped", logx.String("name", def.Name))
			continue
		}
		if err := s.Add(def.Name, spec, scheduledSend(a, def.Name, resolveRelative(configPath, def.RequestFile))); err != nil {
			return err
		}
	}
	return nil
}

// scheduledSend reads the request at fire time so edits to the file apply
// without a reload.
func scheduledSend(a *app, name, requestPath string) schedule.Job {
	return func(ctx context.Context) error {
		if a.eng.Running() {
			return schedule.ErrBusy
		}
		raw, err := readRequestFile(requestPath)
		if err != nil {
			return err
		}
		resp, err := a.exec.Run(ctx, dispatch.KeyTargetSender, raw, progress.Log(a.log.With(logx.String("schedule", name))))
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(firstLine(resp.Message))
		}
		return nil
	}
}
