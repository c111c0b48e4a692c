// Package dispatch routes module requests by key to registered automation
// modules and records what they did.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"roomcast/internal/history"
	"roomcast/model"
	"roomcast/pkg/logx"
	"roomcast/progress"
)

var (
	ErrUnknownModule   = errors.New("unknown module")
	ErrDuplicateModule = errors.New("module already registered")
	ErrRateLimited     = errors.New("too many runs; try again later")
)

// Module handles one request kind. Execute reports failures through the
// response, never by panicking.
type Module interface {
	Key() string
	Execute(ctx context.Context, runID string, raw json.RawMessage, rep progress.Reporter) model.Response
}

type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{modules: map[string]Module{}}
}

func (r *Registry) Register(m Module) error {
	key := strings.TrimSpace(m.Key())
	if key == "" {
		return fmt.Errorf("module key is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, key)
	}
	r.modules[key] = m
	return nil
}

func (r *Registry) Lookup(key string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[key]
	return m, ok
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for k := range r.modules {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Broadcaster mirrors run progress and results to an external bus.
type Broadcaster interface {
	ForRun(runID string) progress.Reporter
	PublishResult(ctx context.Context, runID, module string, resp model.Response) error
}

type Executor struct {
	reg     *Registry
	log     logx.Logger
	history history.Store
	bus     Broadcaster

	limMu   sync.Mutex
	limiter *rate.Limiter
}

type Options struct {
	History history.Store
	Bus     Broadcaster
	// MaxRunsPerMinute <= 0 disables rate limiting.
	MaxRunsPerMinute int
	Log              logx.Logger
}

func NewExecutor(reg *Registry, opts Options) *Executor {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Executor{
		reg:     reg,
		log:     log.With(logx.String("comp", "dispatch")),
		history: opts.History,
		bus:     opts.Bus,
	}
	e.SetRateLimit(opts.MaxRunsPerMinute)
	return e
}

// SetRateLimit replaces the limiter; used on config reload.
func (e *Executor) SetRateLimit(perMinute int) {
	var lim *rate.Limiter
	if perMinute > 0 {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	e.limMu.Lock()
	e.limiter = lim
	e.limMu.Unlock()
}

func (e *Executor) allow() bool {
	e.limMu.Lock()
	lim := e.limiter
	e.limMu.Unlock()
	return lim == nil || lim.Allow()
}

// Run executes the module registered under key. The error is non-nil only
// when no module ran; module failures come back in the response.
func (e *Executor) Run(ctx context.Context, key string, raw json.RawMessage, rep progress.Reporter) (model.Response, error) {
	m, ok := e.reg.Lookup(key)
	if !ok {
		return model.Response{}, fmt.Errorf("%w: %s", ErrUnknownModule, key)
	}
	if !e.allow() {
		e.log.Warn("run rejected by rate limit", logx.String("module", key))
		return model.Response{}, ErrRateLimited
	}

	runID := uuid.NewString()
	log := e.log.With(logx.String("module", key), logx.String("run_id", runID))

	if e.bus != nil {
		rep = progress.Multi(rep, e.bus.ForRun(runID))
	}
	if rep == nil {
		rep = progress.Nop
	}

	started := time.Now()
	log.Info("module started")
	resp := m.Execute(ctx, runID, raw, rep)
	finished := time.Now()
	log.Info("module finished",
		logx.Bool("success", resp.Success),
		logx.Int("total_success", resp.TotalSuccess),
		logx.Int("total_fail", resp.TotalFail),
		logx.Duration("took", finished.Sub(started)),
	)

	// Recording must outlive a cancelled run context.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if e.history != nil {
		err := e.history.Append(rctx, history.Entry{
			RunID:        runID,
			Module:       key,
			Started:      started,
			Finished:     finished,
			Success:      resp.Success,
			TotalSuccess: resp.TotalSuccess,
			TotalFail:    resp.TotalFail,
			Message:      resp.Message,
		})
		if err != nil {
			log.Warn("history append failed", logx.Err(err))
		}
	}
	if e.bus != nil {
		if err := e.bus.PublishResult(rctx, runID, key, resp); err != nil {
			log.Warn("result publish failed", logx.Err(err))
		}
	}
	return resp, nil
}
