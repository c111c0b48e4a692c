package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Kind int

const (
	KindCron Kind = iota + 1
	KindOnce
)

// Spec is a parsed trigger.
//
// Accepted forms:
//   - "at:2026-10-20T09:00:00+09:00" one shot at an RFC3339 time
//   - "cron:0 9 * * MON-FRI" explicit cron (5 or 6 fields, or a descriptor)
//   - anything with whitespace or a leading '@' is treated as cron
type Spec struct {
	Kind Kind
	Cron string
	At   time.Time
}

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func ParseSpec(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Spec{}, fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "at:"):
		v := strings.TrimSpace(s[len("at:"):])
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Spec{}, fmt.Errorf("at: want RFC3339 time: %w", err)
		}
		return Spec{Kind: KindOnce, At: at}, nil
	case strings.HasPrefix(low, "cron:"):
		s = strings.TrimSpace(s[len("cron:"):])
		if s == "" {
			return Spec{}, fmt.Errorf("cron schedule required after 'cron:'")
		}
	case strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@"):
	default:
		return Spec{}, fmt.Errorf("unrecognized schedule %q (use cron:<expr> or at:<RFC3339>)", raw)
	}

	if _, err := parser.Parse(s); err != nil {
		return Spec{}, fmt.Errorf("cron %q: %w", s, err)
	}
	return Spec{Kind: KindCron, Cron: s}, nil
}

// Next returns the next fire time after now, or zero for a spent one-shot.
func (s Spec) Next(now time.Time) time.Time {
	switch s.Kind {
	case KindOnce:
		if s.At.After(now) {
			return s.At
		}
		return time.Time{}
	case KindCron:
		sched, err := parser.Parse(s.Cron)
		if err != nil {
			return time.Time{}
		}
		return sched.Next(now)
	}
	return time.Time{}
}
