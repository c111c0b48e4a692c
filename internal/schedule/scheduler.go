// Package schedule fires configured send jobs on cron or one-shot triggers.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"roomcast/pkg/logx"
)

// Job is what a trigger runs. A job that reports ErrBusy is logged as skipped.
type Job func(ctx context.Context) error

var (
	ErrBusy      = errors.New("runner busy")
	ErrDuplicate = errors.New("schedule name already in use")
	ErrPast      = errors.New("one-shot time is in the past")
)

type Scheduler struct {
	log logx.Logger
	loc *time.Location
	now func() time.Time

	mu      sync.Mutex
	c       *cron.Cron
	ctx     context.Context
	entries map[string]cron.EntryID
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func New(log logx.Logger, loc *time.Location) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		log:     log.With(logx.String("comp", "schedule")),
		loc:     loc,
		now:     time.Now,
		c:       cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		ctx:     context.Background(),
		entries: map[string]cron.EntryID{},
		timers:  map[string]*time.Timer{},
	}
}

// Start begins firing. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.stopped = false
	s.mu.Unlock()
	s.c.Start()
	s.log.Info("scheduler started", logx.String("tz", s.loc.String()))
}

// Stop halts triggers and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()

	s.mu.Lock()
	s.stopped = true
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// Add registers job under a unique name.
func (s *Scheduler) Add(name string, spec Spec, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	if _, ok := s.timers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	switch spec.Kind {
	case KindCron:
		sched, err := parser.Parse(spec.Cron)
		if err != nil {
			return err
		}
		s.entries[name] = s.c.Schedule(sched, cron.FuncJob(func() { s.fire(name, job) }))
	case KindOnce:
		wait := spec.At.Sub(s.now())
		if wait <= 0 {
			return fmt.Errorf("%w: %s at %s", ErrPast, name, spec.At.Format(time.RFC3339))
		}
		s.timers[name] = time.AfterFunc(wait, func() {
			s.mu.Lock()
			delete(s.timers, name)
			s.mu.Unlock()
			s.fire(name, job)
		})
	default:
		return fmt.Errorf("schedule %s: unknown kind", name)
	}

	s.log.Info("schedule added", logx.String("name", name), logx.Time("next", spec.Next(s.now())))
	return nil
}

// Remove drops a schedule; it reports whether name existed.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.c.Remove(id)
		delete(s.entries, name)
		return true
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
		return true
	}
	return false
}

// RemoveAll drops every schedule; used before re-adding on config reload.
func (s *Scheduler) RemoveAll() {
	s.mu.Lock()
	names := make([]string, 0, len(s.entries)+len(s.timers))
	for n := range s.entries {
		names = append(names, n)
	}
	for n := range s.timers {
		names = append(names, n)
	}
	s.mu.Unlock()
	for _, n := range names {
		s.Remove(n)
	}
}

func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries)+len(s.timers))
	for n := range s.entries {
		out = append(out, n)
	}
	for n := range s.timers {
		out = append(out, n)
	}
	return out
}

func (s *Scheduler) fire(name string, job Job) {
	s.mu.Lock()
	ctx := s.ctx
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	log := s.log.With(logx.String("name", name))
	start := time.Now()
	log.Info("schedule fired")
	err := job(ctx)
	switch {
	case err == nil:
		log.Info("schedule done", logx.Duration("took", time.Since(start)))
	case errors.Is(err, ErrBusy):
		log.Warn("schedule skipped; a run is already in progress")
	default:
		log.Error("schedule failed", logx.Err(err))
	}
}
