package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"roomcast/internal/history"
	"roomcast/model"
	"roomcast/progress"
)

type fakeSender struct {
	got   model.SendRequest
	runID string
	err   error
}

func (f *fakeSender) Run(ctx context.Context, id string, req model.SendRequest, rep progress.Reporter) (model.Result, error) {
	f.got, f.runID = req, id
	if f.err != nil {
		return model.Result{}, f.err
	}
	rep.Report(progress.Update{Total: len(req.Targets()), Current: 1, Message: "x"})
	res := model.Result{RunID: id, Total: len(req.Targets()), TotalSuccess: len(req.Targets()), Completed: true}
	res.Summarize()
	return res, nil
}

type fakeBus struct {
	mu       sync.Mutex
	progress int
	results  []model.Response
	runIDs   []string
}

func (b *fakeBus) ForRun(runID string) progress.Reporter {
	return progress.Func(func(progress.Update) {
		b.mu.Lock()
		b.progress++
		b.mu.Unlock()
	})
}

func (b *fakeBus) PublishResult(_ context.Context, runID, _ string, resp model.Response) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, resp)
	b.runIDs = append(b.runIDs, runID)
	return nil
}

func setup(t *testing.T, s Sender, opts Options) *Executor {
	t.Helper()
	reg := NewRegistry()
	if err := RegisterSend(reg, s); err != nil {
		t.Fatalf("RegisterSend: %v", err)
	}
	return NewExecutor(reg, opts)
}

func TestRunBatchedRequest(t *testing.T) {
	s := &fakeSender{}
	hist := history.NewMemory(10)
	bus := &fakeBus{}
	ex := setup(t, s, Options{History: hist, Bus: bus})

	raw := json.RawMessage(`{"batches":[{"type":"g","rooms":["A","B"],"message":"hi"}],"delayMin":0,"delayMax":0}`)
	resp, err := ex.Run(context.Background(), KeyTargetSender, raw, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !resp.Success || resp.TotalSuccess != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}

	entries, _ := hist.Recent(context.Background(), 1)
	if len(entries) != 1 || entries[0].RunID != s.runID || entries[0].Module != KeyTargetSender {
		t.Fatalf("history = %+v (run id %s)", entries, s.runID)
	}
	if bus.progress != 1 || len(bus.results) != 1 || bus.runIDs[0] != s.runID {
		t.Fatalf("bus saw progress=%d results=%v", bus.progress, bus.results)
	}
}

func TestRunSimpleShape(t *testing.T) {
	s := &fakeSender{}
	ex := setup(t, s, Options{})

	raw := json.RawMessage(`{"roomName":"RoomA\nRoomB","message":"hello"}`)
	if _, err := ex.Run(context.Background(), KeyBot, raw, progress.Nop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ts := s.got.Targets(); len(ts) != 2 || ts[1].Name != "RoomB" {
		t.Fatalf("targets = %+v", ts)
	}
}

func TestRunInvalidRequestIsResponse(t *testing.T) {
	ex := setup(t, &fakeSender{}, Options{})
	resp, err := ex.Run(context.Background(), KeyTargetSender, json.RawMessage(`{"batches":`), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Success || !strings.Contains(resp.Message, "invalid parameters") {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRunEngineErrorIsResponse(t *testing.T) {
	ex := setup(t, &fakeSender{err: errors.New("chat application main window not found")}, Options{})
	resp, err := ex.Run(context.Background(), KeyTargetSender, json.RawMessage(`{"batches":[{"rooms":["A"],"message":"m"}]}`), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Success || resp.Message != "chat application main window not found" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestUnknownModule(t *testing.T) {
	ex := setup(t, &fakeSender{}, Options{})
	if _, err := ex.Run(context.Background(), "Nope", nil, nil); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("expected ErrUnknownModule, got %v", err)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterSend(reg, &fakeSender{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(NewSendModule(KeyBot, &fakeSender{})); !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("expected ErrDuplicateModule, got %v", err)
	}
	if keys := reg.Keys(); len(keys) != 2 || keys[0] != KeyBot {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestRateLimit(t *testing.T) {
	ex := setup(t, &fakeSender{}, Options{MaxRunsPerMinute: 1})
	raw := json.RawMessage(`{"batches":[{"rooms":["A"],"message":"m"}]}`)

	if _, err := ex.Run(context.Background(), KeyTargetSender, raw, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := ex.Run(context.Background(), KeyTargetSender, raw, nil); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	ex.SetRateLimit(0)
	if _, err := ex.Run(context.Background(), KeyTargetSender, raw, nil); err != nil {
		t.Fatalf("Run after lifting limit: %v", err)
	}
}
