package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeBatchedDefaults(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"batches":[{"type":"g","rooms":["RoomA","RoomB"],"message":"hi"}]}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if !req.FileFirst || req.DelayMin != 1.0 || req.DelayMax != 3.0 {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	ts := req.Targets()
	if len(ts) != 2 || ts[0].Name != "RoomA" || ts[1].Message != "hi" {
		t.Fatalf("unexpected targets: %+v", ts)
	}
}

func TestDecodeExplicitFields(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"batches":[{"rooms":["A"],"message":"m"}],"fileFirst":false,"delayMin":0,"delayMax":0.5}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if req.FileFirst || req.DelayMin != 0 || req.DelayMax != 0.5 {
		t.Fatalf("explicit fields lost: %+v", req)
	}
}

func TestDecodeSimpleShape(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"roomName":" RoomA \n\nRoomB\r\n","message":"hello"}`))
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if len(req.Batches) != 1 || req.Batches[0].Type != BatchSimple {
		t.Fatalf("unexpected batches: %+v", req.Batches)
	}
	rooms := req.Batches[0].Rooms
	if len(rooms) != 2 || rooms[0] != "RoomA" || rooms[1] != "RoomB" {
		t.Fatalf("unexpected rooms: %q", rooms)
	}
}

func TestDecodeSimpleEmptyRoom(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"roomName":"  ","message":"hello"}`))
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"batches":`))
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		req  SendRequest
		ok   bool
	}{
		{"no batches", SendRequest{DelayMax: 1}, false},
		{"blank message", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: " "}}, DelayMax: 1}, false},
		{"blank message with file", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}}}, FilePath: file, DelayMax: 1}, true},
		{"missing file", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, FilePath: filepath.Join(dir, "nope")}, false},
		{"directory as file", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, FilePath: dir}, false},
		{"min above max", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: 3, DelayMax: 1}, false},
		{"negative", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: -1, DelayMax: 1}, false},
		{"empty rooms", SendRequest{Batches: []SendBatch{{Rooms: nil}}, DelayMin: 1, DelayMax: 1}, true},
		{"huge delays", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: 1e10, DelayMax: 1e10}, false},
		{"delay at cap", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: MaxDelay, DelayMax: MaxDelay}, true},
		{"NaN delay", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: math.NaN(), DelayMax: 1}, false},
		{"infinite delay", SendRequest{Batches: []SendBatch{{Rooms: []string{"A"}, Message: "m"}}, DelayMin: 0, DelayMax: math.Inf(1)}, false},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidParameters) {
			t.Fatalf("%s: expected ErrInvalidParameters, got %v", tc.name, err)
		}
	}
}

func TestTargetsKeepDuplicatesDropBlanks(t *testing.T) {
	req := SendRequest{Batches: []SendBatch{
		{Rooms: []string{"A", " ", "A"}, Message: "one"},
		{Rooms: []string{"B"}, Message: "two"},
	}}
	ts := req.Targets()
	if len(ts) != 3 {
		t.Fatalf("expected 3 targets, got %+v", ts)
	}
	if ts[2].Name != "B" || ts[2].Message != "two" {
		t.Fatalf("batch order not preserved: %+v", ts)
	}
}

func TestResultSummaries(t *testing.T) {
	r := Result{Total: 3, TotalSuccess: 2, TotalFail: 1, Completed: true}
	r.Summarize()
	if r.Message != "All jobs finished.\nSuccess: 2, Fail: 1" {
		t.Fatalf("unexpected message %q", r.Message)
	}
	resp := r.Response()
	if !resp.Success || resp.TotalSuccess != 2 || resp.TotalFail != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	c := Result{Total: 3, TotalSuccess: 1, Cancelled: true}
	c.Summarize()
	if c.Response().Success {
		t.Fatalf("cancelled run must not be successful")
	}
}
