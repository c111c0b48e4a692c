package engine

import (
	"math"
	"math/rand"
	"time"
)

// SampleDelay draws a uniform delay between min and max seconds.
// Callers guarantee 0 <= min <= max.
func SampleDelay(rng *rand.Rand, min, max float64) time.Duration {
	lo := secondsToDuration(min)
	hi := secondsToDuration(max)
	if hi <= lo {
		return lo
	}
	d := secondsToDuration(min + rng.Float64()*(max-min))
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// secondsToDuration saturates instead of overflowing; NaN maps to zero.
func secondsToDuration(s float64) time.Duration {
	ns := math.Round(s * float64(time.Second))
	switch {
	case math.IsNaN(ns) || ns <= 0:
		return 0
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func (r *Runner) nextDelay(min, max float64) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return SampleDelay(r.rng, min, max)
}
