package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"roomcast/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config selects the backend.
//
// Driver values:
//   - "memory": process-local ring of recent runs
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only
}

// Entry is one finished run. Targets are not stored individually.
type Entry struct {
	RunID        string
	Module       string
	Started      time.Time
	Finished     time.Time
	Success      bool
	TotalSuccess int
	TotalFail    int
	Message      string
}

func (e Entry) Took() time.Duration { return e.Finished.Sub(e.Started) }

type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// Open returns (nil, nil) when history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "memory":
		return NewMemory(defaultMemoryCap), nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
