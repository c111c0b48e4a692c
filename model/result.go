package model

import (
	"fmt"
	"strings"
	"time"
)

// Result summarizes one run. TotalSuccess+TotalFail counts the targets that
// were fully attempted; a target interrupted by cancellation is in neither.
type Result struct {
	RunID        string    `json:"runId"`
	Total        int       `json:"total"`
	TotalSuccess int       `json:"totalSuccess"`
	TotalFail    int       `json:"totalFail"`
	Log          []string  `json:"log"`
	Completed    bool      `json:"completed"`
	Cancelled    bool      `json:"cancelled"`
	Message      string    `json:"message"`
	Started      time.Time `json:"started"`
	Finished     time.Time `json:"finished"`
}

func (r Result) Attempted() int { return r.TotalSuccess + r.TotalFail }

// Success is true when the run reached the end of its target list.
// Individual target failures do not make a run unsuccessful.
func (r Result) Success() bool { return r.Completed && !r.Cancelled }

func (r Result) LogText() string { return strings.Join(r.Log, "\n") }

// Summarize fills Message from the counters.
func (r *Result) Summarize() {
	switch {
	case r.Cancelled:
		r.Message = fmt.Sprintf("Cancelled after %d of %d targets.\nSuccess: %d, Fail: %d",
			r.Attempted(), r.Total, r.TotalSuccess, r.TotalFail)
	case r.Total == 0:
		r.Message = "Nothing to send."
	default:
		r.Message = fmt.Sprintf("All jobs finished.\nSuccess: %d, Fail: %d", r.TotalSuccess, r.TotalFail)
	}
}

// Response is the shape handed back to the invoking module.
type Response struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TotalSuccess int    `json:"totalSuccess"`
	TotalFail    int    `json:"totalFail"`
	Log          string `json:"log,omitempty"`
}

func (r Result) Response() Response {
	return Response{
		Success:      r.Success(),
		Message:      r.Message,
		TotalSuccess: r.TotalSuccess,
		TotalFail:    r.TotalFail,
		Log:          r.LogText(),
	}
}

// Failure is the response for a run that never started or aborted.
func Failure(err error) Response {
	return Response{Success: false, Message: err.Error()}
}
