// Package engine drives a multi-room send: for each target it opens the room
// through the chat client's search, waits for the room window, delivers the
// payload and closes the room again.
//
// The engine assumes exclusive use of the desktop while a run is in progress;
// a Runner accepts one run at a time.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"roomcast/keyboard"
	"roomcast/pkg/logx"
	"roomcast/window"
)

var (
	// ErrMainWindowNotFound aborts a run before any target is processed.
	ErrMainWindowNotFound = errors.New("chat application main window not found")

	// ErrRunInProgress is returned when Run is called while another run is active.
	ErrRunInProgress = errors.New("a send run is already in progress")

	// ErrRoomOpenTimeout marks a target whose window never appeared.
	ErrRoomOpenTimeout = errors.New("room window not found")
)

// Locator resolves the chat client's windows.
type Locator interface {
	MainWindow() (window.Handle, bool)
	SearchControl(main window.Handle) (window.Handle, bool)
	WindowByTitle(substr string) (window.Handle, bool)
}

// Focuser makes a window the foreground window with input focus.
type Focuser interface {
	ForceActivate(h window.Handle)
}

// Control talks to a control through its message queue, without focus.
type Control interface {
	SetText(h window.Handle, text string) error
	Post(h window.Handle, key keyboard.Key) error
}

// Injector types into whichever window has focus.
type Injector interface {
	Tap(keys ...keyboard.Key) error
	InjectText(ctx context.Context, text string) error
	InjectTextThenConfirm(ctx context.Context, text string) error
	InjectFile(ctx context.Context, path string) error
	Dismiss(ctx context.Context) error
	OpenFind() error
}

type Deps struct {
	Locator  Locator
	Focuser  Focuser
	Control  Control
	Injector Injector
	Log      logx.Logger

	// Rand seeds inter-target delays; nil uses a time-seeded source.
	Rand *rand.Rand
}

// Policy holds the engine's own settle intervals. Injector timings are
// configured on the injector.
type Policy struct {
	// After writing the room name into the search control.
	SearchSettle time.Duration
	// Fallback search: after activating the main window, after Ctrl+F,
	// and after pasting the room name.
	FallbackActivateSettle time.Duration
	FindSettle             time.Duration
	FallbackPasteSettle    time.Duration
	// After activating the room window, before delivering.
	ActivateSettle time.Duration
	// Room-window wait: PollAttempts checks spaced PollInterval apart.
	PollInterval time.Duration
	PollAttempts int
	// Once after the last target.
	Stabilize time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SearchSettle:           time.Second,
		FallbackActivateSettle: 500 * time.Millisecond,
		FindSettle:             time.Second,
		FallbackPasteSettle:    time.Second,
		ActivateSettle:         500 * time.Millisecond,
		PollInterval:           500 * time.Millisecond,
		PollAttempts:           30,
		Stabilize:              2 * time.Second,
	}
}

type Runner struct {
	deps Deps
	log  logx.Logger

	mu      sync.Mutex
	policy  Policy
	running bool
	cancel  context.CancelFunc

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(deps Deps, policy Policy) *Runner {
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Runner{
		deps:   deps,
		log:    log.With(logx.String("comp", "engine")),
		policy: policy,
		rng:    rng,
	}
}

// SetPolicy replaces the settle intervals. A run in progress keeps the
// policy it started with.
func (r *Runner) SetPolicy(p Policy) {
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
}

func (r *Runner) Policy() Policy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Cancel stops the active run at its next step boundary or settle interval.
// It reports whether a run was active.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

func (r *Runner) tryAcquire(cancel context.CancelFunc) (Policy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return Policy{}, false
	}
	r.running = true
	r.cancel = cancel
	return r.policy, true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.cancel = nil
	r.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
