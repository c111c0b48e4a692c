package engine

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"roomcast/model"
	"roomcast/pkg/logx"
	"roomcast/progress"
)

func fastPolicy() Policy {
	return Policy{PollAttempts: 3}
}

func newRunner(d *desk) *Runner {
	return New(Deps{
		Locator:  d,
		Focuser:  d,
		Control:  d,
		Injector: d,
		Rand:     rand.New(rand.NewSource(1)),
	}, fastPolicy())
}

func request(msg string, rooms ...string) model.SendRequest {
	return model.SendRequest{
		Batches:   []model.SendBatch{{Type: "test", Rooms: rooms, Message: msg}},
		FileFirst: true,
	}
}

type collector struct{ updates []progress.Update }

func (c *collector) Report(u progress.Update) { c.updates = append(c.updates, u) }

func TestRunTwoRoomsSuccess(t *testing.T) {
	d := newDesk("RoomA", "RoomB")
	rep := &collector{}

	res, err := newRunner(d).Run(context.Background(), "run-1", request("hello", "RoomA", "RoomB"), rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success() || res.TotalSuccess != 2 || res.TotalFail != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RunID != "run-1" {
		t.Fatalf("run id = %q", res.RunID)
	}
	if res.Message != "All jobs finished.\nSuccess: 2, Fail: 0" {
		t.Fatalf("message = %q", res.Message)
	}

	wantUpdates := []progress.Update{
		{Total: 2, Current: 0, Message: "starting"},
		{Total: 2, Current: 1, Message: "[1/2] RoomA"},
		{Total: 2, Current: 2, Message: "[2/2] RoomB"},
		{Total: 2, Current: 2, Message: "done"},
	}
	if !reflect.DeepEqual(rep.updates, wantUpdates) {
		t.Fatalf("updates = %+v", rep.updates)
	}

	wantEvents := []string{
		"settext RoomA", "post Enter", "activate 100", "send hello", "dismiss",
		"settext RoomB", "post Enter", "activate 101", "send hello", "dismiss",
	}
	if !reflect.DeepEqual(d.events, wantEvents) {
		t.Fatalf("events = %q", d.events)
	}
}

func TestRunRoomTimeoutContinues(t *testing.T) {
	d := newDesk("RoomA", "RoomB")
	res, err := newRunner(d).Run(context.Background(), "", request("hi", "RoomA", "RoomC", "RoomB"), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalSuccess != 2 || res.TotalFail != 1 || !res.Completed {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RunID == "" {
		t.Fatalf("run id should be generated")
	}
	if res.Log[1] != "RoomC: FAILED (room window not found)" {
		t.Fatalf("log = %q", res.Log)
	}
	// After a timeout the main window gets focus back and search is cleared.
	joined := strings.Join(d.events, "|")
	if !strings.Contains(joined, "settext RoomC|post Enter|activate 1|tap Esc|settext RoomB") {
		t.Fatalf("timeout recovery missing: %q", d.events)
	}
}

func TestRunMainWindowMissing(t *testing.T) {
	d := newDesk("RoomA")
	d.noMain = true

	rep := &collector{}
	res, err := newRunner(d).Run(context.Background(), "", request("hi", "RoomA"), rep)
	if !errors.Is(err, ErrMainWindowNotFound) {
		t.Fatalf("expected ErrMainWindowNotFound, got %v", err)
	}
	if res.TotalSuccess != 0 || res.TotalFail != 0 || len(d.events) != 0 {
		t.Fatalf("no target should be touched: %+v %q", res, d.events)
	}
	want := []progress.Update{{Total: 1, Current: 0, Message: "starting"}}
	if !reflect.DeepEqual(rep.updates, want) {
		t.Fatalf("updates = %+v, want only the starting update", rep.updates)
	}
}

func TestRunEmptyTargetList(t *testing.T) {
	d := newDesk()
	d.noMain = true
	rep := &collector{}

	res, err := newRunner(d).Run(context.Background(), "", model.SendRequest{Batches: []model.SendBatch{{Rooms: nil}}}, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Completed || res.Attempted() != 0 || res.Message != "Nothing to send." {
		t.Fatalf("unexpected result %+v", res)
	}
	last := rep.updates[len(rep.updates)-1]
	if last.Message != "done" || last.Total != 0 {
		t.Fatalf("final update = %+v", last)
	}
}

func TestRunInvalidParameters(t *testing.T) {
	_, err := newRunner(newDesk()).Run(context.Background(), "", model.SendRequest{}, nil)
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRunCancelledAfterFirstTarget(t *testing.T) {
	d := newDesk("RoomA", "RoomB", "RoomC")
	r := newRunner(d)
	d.onDismiss = func() { r.Cancel() }
	rep := &collector{}

	res, err := r.Run(context.Background(), "", request("hi", "RoomA", "RoomB", "RoomC"), rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Cancelled || res.Completed || res.Success() {
		t.Fatalf("expected cancelled result, got %+v", res)
	}
	if res.TotalSuccess != 1 || res.Attempted() != 1 {
		t.Fatalf("expected exactly one attempted target, got %+v", res)
	}
	if last := rep.updates[len(rep.updates)-1]; last.Message != "cancelled" {
		t.Fatalf("final update = %+v", last)
	}
	if r.Running() {
		t.Fatalf("runner should be idle after a cancelled run")
	}
}

func TestRunCancelledMidTargetNotCounted(t *testing.T) {
	d := newDesk("RoomA", "RoomB")
	r := newRunner(d)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := progress.Func(func(u progress.Update) {
		if u.Current == 2 && strings.HasPrefix(u.Message, "[2/2]") {
			cancel()
		}
	})
	res, err := r.Run(ctx, "", request("hi", "RoomA", "RoomB"), rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalSuccess != 1 || res.TotalFail != 0 || !res.Cancelled {
		t.Fatalf("interrupted target must not be counted: %+v", res)
	}
}

func TestRunCancelledTargetIsTraced(t *testing.T) {
	d := newDesk("RoomA")
	var buf bytes.Buffer
	r := New(Deps{
		Locator:  d,
		Focuser:  d,
		Control:  d,
		Injector: d,
		Log:      logx.NewJSON(&buf, "debug"),
		Rand:     rand.New(rand.NewSource(1)),
	}, fastPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := progress.Func(func(u progress.Update) {
		if strings.HasPrefix(u.Message, "[1/1]") {
			cancel()
		}
	})
	res, err := r.Run(ctx, "", request("hi", "RoomA"), rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Cancelled || res.Attempted() != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	out := buf.String()
	for _, state := range []string{`"state":"idle"`, `"state":"cancelled"`} {
		if !strings.Contains(out, state) {
			t.Fatalf("log lacks %s:\n%s", state, out)
		}
	}
	if strings.Contains(out, `"state":"failed"`) {
		t.Fatalf("cancelled target traced as failed:\n%s", out)
	}
}

func TestRunConcurrentRejected(t *testing.T) {
	r := newRunner(newDesk("RoomA"))
	if _, ok := r.tryAcquire(func() {}); !ok {
		t.Fatalf("first acquire failed")
	}
	_, err := r.Run(context.Background(), "", request("hi", "RoomA"), nil)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	r.release()
	if _, err := r.Run(context.Background(), "", request("hi", "RoomA"), nil); err != nil {
		t.Fatalf("Run after release: %v", err)
	}
}

func TestRunFallbackSearch(t *testing.T) {
	d := newDesk("RoomA")
	d.noSearch = true

	res, err := newRunner(d).Run(context.Background(), "", request("hi", "RoomA"), nil)
	if err != nil || res.TotalSuccess != 1 {
		t.Fatalf("Run = %+v, %v", res, err)
	}
	want := []string{"activate 1", "tap Ctrl+F", "paste RoomA", "tap Enter", "activate 100", "send hi", "dismiss"}
	if !reflect.DeepEqual(d.events, want) {
		t.Fatalf("events = %q", d.events)
	}
}

func TestRunAttachmentOrder(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, fileFirst := range []bool{true, false} {
		d := newDesk("RoomA")
		req := request("hi", "RoomA")
		req.FilePath = file
		req.FileFirst = fileFirst

		if _, err := newRunner(d).Run(context.Background(), "", req, nil); err != nil {
			t.Fatalf("Run: %v", err)
		}
		got := d.events[3:5]
		want := []string{"file " + file, "send hi"}
		if !fileFirst {
			want = []string{"send hi", "file " + file}
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("fileFirst=%v: events = %q", fileFirst, d.events)
		}
	}
}

func TestRunAttachmentOnly(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := newDesk("RoomA")
	req := request("   ", "RoomA")
	req.FilePath = file

	if _, err := newRunner(d).Run(context.Background(), "", req, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, e := range d.events {
		if strings.HasPrefix(e, "send") {
			t.Fatalf("blank message must not be sent: %q", d.events)
		}
	}
}

func TestRunTargetErrorsAreIsolated(t *testing.T) {
	d := newDesk("RoomA", "RoomB", "RoomC")
	d.panicOn = "boom"
	d.failTextOn = "busy"

	req := model.SendRequest{Batches: []model.SendBatch{
		{Rooms: []string{"RoomA"}, Message: "boom"},
		{Rooms: []string{"RoomB"}, Message: "busy"},
		{Rooms: []string{"RoomC"}, Message: "fine"},
	}}
	res, err := newRunner(d).Run(context.Background(), "", req, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalSuccess != 1 || res.TotalFail != 2 || !res.Completed {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.HasPrefix(res.Log[0], "RoomA: FAILED (panic") || res.Log[1] != "RoomB: FAILED (text: clipboard busy)" {
		t.Fatalf("log = %q", res.Log)
	}
}

func TestDelayWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		d := SampleDelay(rng, 1.0, 3.0)
		if d < time.Second || d > 3*time.Second {
			t.Fatalf("delay %v outside [1s, 3s]", d)
		}
	}
	if d := SampleDelay(rng, 0.25, 0.25); d != 250*time.Millisecond {
		t.Fatalf("degenerate range = %v", d)
	}
	if d := SampleDelay(rng, 0, 0); d != 0 {
		t.Fatalf("zero range = %v", d)
	}
	if d := SampleDelay(rng, 1e10, 1e10); d <= 0 {
		t.Fatalf("huge delay overflowed to %v", d)
	}
}

func TestStateNames(t *testing.T) {
	if StateAwaitingRoomOpen.String() != "awaiting_room_open" || State(99).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
	if StateIdle.String() != "idle" || StateCancelled.String() != "cancelled" {
		t.Fatalf("unexpected idle/cancelled names")
	}
	if !StateTimedOut.Terminal() || !StateCancelled.Terminal() || StateSending.Terminal() || StateIdle.Terminal() {
		t.Fatalf("unexpected Terminal()")
	}
}
