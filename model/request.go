// Package model holds the request, target and result types exchanged between
// the dispatcher and the automation engine.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"roomcast/window"
)

// ErrInvalidParameters is returned for malformed or incomplete requests.
var ErrInvalidParameters = errors.New("invalid parameters")

const (
	DefaultDelayMin = 1.0
	DefaultDelayMax = 3.0
	// MaxDelay caps delayMin and delayMax, in seconds.
	MaxDelay = 24 * 60 * 60.0

	// BatchSimple tags the batch synthesized from the single-room request shape.
	BatchSimple = "simple"
)

// Target is one chat room to send to. Handle is filled in once the room
// window has been opened and is only valid for that target's processing.
type Target struct {
	Name    string        `json:"name"`
	Message string        `json:"message"`
	Handle  window.Handle `json:"-"`
}

// SendBatch is a group of rooms receiving the same message.
type SendBatch struct {
	Type    string   `json:"type"`
	Rooms   []string `json:"rooms"`
	Message string   `json:"message"`
}

// SendRequest is one multi-room send job.
type SendRequest struct {
	Batches   []SendBatch `json:"batches"`
	FilePath  string      `json:"filePath,omitempty"`
	FileFirst bool        `json:"fileFirst"`
	DelayMin  float64     `json:"delayMin"`
	DelayMax  float64     `json:"delayMax"`
}

type wireRequest struct {
	Batches   []SendBatch `json:"batches"`
	FilePath  string      `json:"filePath"`
	FileFirst *bool       `json:"fileFirst"`
	DelayMin  *float64    `json:"delayMin"`
	DelayMax  *float64    `json:"delayMax"`

	// single-room shape
	RoomName *string `json:"roomName"`
	Message  *string `json:"message"`
}

// DecodeRequest parses either the batched shape
//
//	{"batches":[{"type":"..","rooms":[..],"message":".."}],"filePath":"..","fileFirst":true,"delayMin":1,"delayMax":3}
//
// or the single-room shape {"roomName":"A\nB","message":".."}, where roomName
// may list several rooms one per line. Missing optional fields take defaults.
func DecodeRequest(raw []byte) (SendRequest, error) {
	var w wireRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		return SendRequest{}, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	req := SendRequest{
		Batches:   w.Batches,
		FilePath:  strings.TrimSpace(w.FilePath),
		FileFirst: true,
		DelayMin:  DefaultDelayMin,
		DelayMax:  DefaultDelayMax,
	}
	if w.FileFirst != nil {
		req.FileFirst = *w.FileFirst
	}
	if w.DelayMin != nil {
		req.DelayMin = *w.DelayMin
	}
	if w.DelayMax != nil {
		req.DelayMax = *w.DelayMax
	}

	if w.Batches == nil && w.RoomName != nil {
		msg := ""
		if w.Message != nil {
			msg = *w.Message
		}
		req.Batches = []SendBatch{{
			Type:    BatchSimple,
			Rooms:   SplitRooms(*w.RoomName),
			Message: msg,
		}}
		// Single-room requests with no rooms have nothing to fall back on.
		if len(req.Batches[0].Rooms) == 0 {
			return req, fmt.Errorf("%w: roomName is empty", ErrInvalidParameters)
		}
	}
	return req, nil
}

// SplitRooms splits a newline separated room list, trimming blanks.
func SplitRooms(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Validate rejects requests the engine cannot act on. A request whose batches
// list no rooms is valid and yields an empty run.
func (r SendRequest) Validate() error {
	if len(r.Batches) == 0 {
		return fmt.Errorf("%w: no batches", ErrInvalidParameters)
	}
	if !finite(r.DelayMin) || !finite(r.DelayMax) {
		return fmt.Errorf("%w: delays must be finite numbers", ErrInvalidParameters)
	}
	if r.DelayMin < 0 || r.DelayMax < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidParameters)
	}
	if r.DelayMax > MaxDelay {
		return fmt.Errorf("%w: delayMax %.0f exceeds %.0f seconds", ErrInvalidParameters, r.DelayMax, MaxDelay)
	}
	if r.DelayMin > r.DelayMax {
		return fmt.Errorf("%w: delayMin %.2f exceeds delayMax %.2f", ErrInvalidParameters, r.DelayMin, r.DelayMax)
	}
	if r.FilePath != "" {
		st, err := os.Stat(r.FilePath)
		if err != nil {
			return fmt.Errorf("%w: attachment: %v", ErrInvalidParameters, err)
		}
		if st.IsDir() {
			return fmt.Errorf("%w: attachment %q is a directory", ErrInvalidParameters, r.FilePath)
		}
		return nil
	}
	for i, b := range r.Batches {
		if len(b.Rooms) > 0 && strings.TrimSpace(b.Message) == "" {
			return fmt.Errorf("%w: batch %d has neither a message nor an attachment", ErrInvalidParameters, i)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Targets flattens the batches in order. Blank room names are dropped;
// duplicates are kept and processed independently.
func (r SendRequest) Targets() []Target {
	var out []Target
	for _, b := range r.Batches {
		for _, room := range b.Rooms {
			name := strings.TrimSpace(room)
			if name == "" {
				continue
			}
			out = append(out, Target{Name: name, Message: b.Message})
		}
	}
	return out
}
