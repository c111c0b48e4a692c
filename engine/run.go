package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"roomcast/keyboard"
	"roomcast/model"
	"roomcast/pkg/logx"
	"roomcast/progress"
	"roomcast/window"
)

// Run processes every target of req in order and returns the tally.
//
// Per-target failures are recorded in the result and never abort the run.
// The returned error is non-nil only for invalid requests
// (model.ErrInvalidParameters), a missing main window or a concurrent run.
// Cancelling ctx or calling Cancel stops the run; the target in flight is
// abandoned and counted neither as success nor failure.
//
// An empty id is replaced by a fresh UUID.
func (r *Runner) Run(ctx context.Context, id string, req model.SendRequest, rep progress.Reporter) (model.Result, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if rep == nil {
		rep = progress.Nop
	}
	res := model.Result{RunID: id, Started: time.Now()}

	if err := req.Validate(); err != nil {
		return res, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	policy, ok := r.tryAcquire(cancel)
	if !ok {
		return res, ErrRunInProgress
	}
	defer r.release()

	log := r.log.With(logx.String("run_id", id))
	targets := req.Targets()
	total := len(targets)
	res.Total = total

	log.Info("run started",
		logx.Int("targets", total),
		logx.Bool("attachment", req.FilePath != ""),
		logx.Float64("delay_min", req.DelayMin),
		logx.Float64("delay_max", req.DelayMax),
	)
	rep.Report(progress.Update{Total: total, Current: 0, Message: "starting"})

	if total == 0 {
		return r.finish(log, rep, res, true), nil
	}

	main, ok := r.deps.Locator.MainWindow()
	if !ok {
		log.Error("main window not found; run aborted")
		res.Finished = time.Now()
		res.Message = ErrMainWindowNotFound.Error()
		return res, ErrMainWindowNotFound
	}
	log.Debug("main window", logx.Stringer("hwnd", main))

	for i, t := range targets {
		if runCtx.Err() != nil {
			res.Cancelled = true
			break
		}
		rep.Report(progress.Update{
			Total:   total,
			Current: i + 1,
			Message: fmt.Sprintf("[%d/%d] %s", i+1, total, t.Name),
		})

		tlog := log.With(logx.String("room", t.Name), logx.Int("index", i+1))
		trace(tlog, StateIdle)
		err := r.processTarget(runCtx, policy, tlog, main, t, req)
		switch {
		case err == nil:
			res.TotalSuccess++
			res.Log = append(res.Log, t.Name+": ok")
		case runCtx.Err() != nil:
			trace(tlog, StateCancelled)
			tlog.Warn("target interrupted by cancellation", logx.Err(err))
			res.Log = append(res.Log, t.Name+": interrupted")
			res.Cancelled = true
		case errors.Is(err, ErrRoomOpenTimeout):
			res.TotalFail++
			res.Log = append(res.Log, t.Name+": FAILED (room window not found)")
		default:
			res.TotalFail++
			res.Log = append(res.Log, fmt.Sprintf("%s: FAILED (%v)", t.Name, err))
		}
		if res.Cancelled {
			break
		}

		if i < total-1 {
			d := r.nextDelay(req.DelayMin, req.DelayMax)
			tlog.Debug("inter-target delay", logx.Duration("delay", d))
			if err := sleep(runCtx, d); err != nil {
				res.Cancelled = true
				break
			}
		}
	}

	if !res.Cancelled {
		_ = sleep(runCtx, policy.Stabilize)
	}
	return r.finish(log, rep, res, !res.Cancelled), nil
}

func (r *Runner) finish(log logx.Logger, rep progress.Reporter, res model.Result, completed bool) model.Result {
	res.Completed = completed
	res.Finished = time.Now()
	res.Summarize()

	if completed {
		rep.Report(progress.Update{Total: res.Total, Current: res.Total, Message: "done"})
	} else {
		rep.Report(progress.Update{Total: res.Total, Current: res.Attempted(), Message: "cancelled"})
	}
	log.Info("run finished",
		logx.Int("success", res.TotalSuccess),
		logx.Int("fail", res.TotalFail),
		logx.Bool("cancelled", res.Cancelled),
		logx.Duration("elapsed", res.Finished.Sub(res.Started)),
	)
	return res
}

// processTarget runs one target through the state machine. A panic in any
// step fails the target only.
func (r *Runner) processTarget(ctx context.Context, p Policy, log logx.Logger, main window.Handle, t model.Target, req model.SendRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			log.Error("target panicked", logx.Any("panic", rec), logx.Stack(logx.StackTrace(3, 16)))
		}
		if err != nil && ctx.Err() == nil {
			trace(log, StateFailed)
		}
	}()

	trace(log, StateLocating)
	if err := r.openRoom(ctx, p, log, main, t.Name); err != nil {
		return err
	}

	trace(log, StateAwaitingRoomOpen)
	h, err := r.awaitRoom(ctx, p, t.Name)
	if err != nil {
		return err
	}
	if h == 0 {
		trace(log, StateTimedOut)
		log.Warn("room window did not appear", logx.Duration("waited", time.Duration(p.PollAttempts)*p.PollInterval))
		// Leave the search UI clean for the next target.
		r.deps.Focuser.ForceActivate(main)
		_ = r.deps.Injector.Tap(keyboard.KeyEscape)
		return ErrRoomOpenTimeout
	}
	t.Handle = h
	trace(log, StateOpened, logx.Stringer("hwnd", h))

	if err := r.deliver(ctx, p, log, t, req); err != nil {
		return err
	}

	trace(log, StateClosing)
	if err := r.deps.Injector.Dismiss(ctx); err != nil {
		return fmt.Errorf("close room: %w", err)
	}
	trace(log, StateDone)
	return nil
}

// openRoom types the room name into the main window's search control and
// confirms. Without a search control the client's find shortcut is used.
func (r *Runner) openRoom(ctx context.Context, p Policy, log logx.Logger, main window.Handle, name string) error {
	if search, ok := r.deps.Locator.SearchControl(main); ok {
		trace(log, StateSearchFound, logx.Stringer("hwnd", search))
		if err := r.deps.Control.SetText(search, name); err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if err := sleep(ctx, p.SearchSettle); err != nil {
			return err
		}
		if err := r.deps.Control.Post(search, keyboard.KeyReturn); err != nil {
			return fmt.Errorf("search confirm: %w", err)
		}
		return nil
	}

	trace(log, StateSearchFallback)
	r.deps.Focuser.ForceActivate(main)
	if err := sleep(ctx, p.FallbackActivateSettle); err != nil {
		return err
	}
	if err := r.deps.Injector.OpenFind(); err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if err := sleep(ctx, p.FindSettle); err != nil {
		return err
	}
	if err := r.deps.Injector.InjectText(ctx, name); err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if err := sleep(ctx, p.FallbackPasteSettle); err != nil {
		return err
	}
	if err := r.deps.Injector.Tap(keyboard.KeyReturn); err != nil {
		return fmt.Errorf("find confirm: %w", err)
	}
	return nil
}

// awaitRoom polls for a window titled like the room. A zero handle with a nil
// error means the wait timed out.
func (r *Runner) awaitRoom(ctx context.Context, p Policy, name string) (window.Handle, error) {
	for attempt := 0; attempt < p.PollAttempts; attempt++ {
		if h, ok := r.deps.Locator.WindowByTitle(name); ok {
			return h, nil
		}
		if err := sleep(ctx, p.PollInterval); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// deliver focuses the room and sends the attachment and text in the
// requested order. A blank message sends only the attachment.
func (r *Runner) deliver(ctx context.Context, p Policy, log logx.Logger, t model.Target, req model.SendRequest) error {
	r.deps.Focuser.ForceActivate(t.Handle)
	if err := sleep(ctx, p.ActivateSettle); err != nil {
		return err
	}
	trace(log, StateSending)

	sendText := func() error {
		if strings.TrimSpace(t.Message) == "" {
			return nil
		}
		if err := r.deps.Injector.InjectTextThenConfirm(ctx, t.Message); err != nil {
			return fmt.Errorf("text: %w", err)
		}
		return nil
	}
	sendFile := func() error {
		if req.FilePath == "" {
			return nil
		}
		if err := r.deps.Injector.InjectFile(ctx, req.FilePath); err != nil {
			return fmt.Errorf("attachment: %w", err)
		}
		return nil
	}

	first, second := sendText, sendFile
	if req.FileFirst {
		first, second = sendFile, sendText
	}
	if err := first(); err != nil {
		return err
	}
	return second()
}

func trace(log logx.Logger, s State, fields ...logx.Field) {
	log.Debug("target state", append([]logx.Field{logx.String("state", s.String())}, fields...)...)
}
