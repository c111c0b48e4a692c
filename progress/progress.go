// Package progress carries run progress from the engine to observers.
// Reporters are called synchronously on the run's goroutine and must not block.
package progress

import (
	"sync"

	"roomcast/pkg/logx"
)

type Update struct {
	Total   int    `json:"total"`
	Current int    `json:"current"`
	Message string `json:"message"`
}

// Fraction is Current/Total clamped to [0,1]; an empty run counts as done.
func (u Update) Fraction() float64 {
	if u.Total <= 0 {
		return 1
	}
	f := float64(u.Current) / float64(u.Total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

type Reporter interface {
	Report(Update)
}

// Func adapts a plain function. A nil Func drops updates.
type Func func(Update)

func (f Func) Report(u Update) {
	if f != nil {
		f(u)
	}
}

type nop struct{}

func (nop) Report(Update) {}

// Nop discards updates. It is comparable, so callers may test r == Nop.
var Nop Reporter = nop{}

type multi []Reporter

func (m multi) Report(u Update) {
	for _, r := range m {
		r.Report(u)
	}
}

// Multi fans an update out to every non-nil reporter in order.
func Multi(rs ...Reporter) Reporter {
	out := make(multi, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return Nop
	case 1:
		return out[0]
	}
	return out
}

// Log writes each update at info level.
func Log(l logx.Logger) Reporter {
	return Func(func(u Update) {
		l.Info("progress",
			logx.Int("current", u.Current),
			logx.Int("total", u.Total),
			logx.String("status", u.Message),
		)
	})
}

// Chan buffers updates for a consumer on another goroutine. When the buffer
// is full the oldest update is dropped so the latest state always gets through.
type Chan struct {
	mu     sync.Mutex
	ch     chan Update
	closed bool
}

func NewChan(buffer int) *Chan {
	if buffer <= 0 {
		buffer = 1
	}
	return &Chan{ch: make(chan Update, buffer)}
}

func (c *Chan) C() <-chan Update { return c.ch }

func (c *Chan) Report(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.ch <- u:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// Close ends the stream. Later reports are dropped.
func (c *Chan) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
