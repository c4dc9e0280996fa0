package telemetry

import (
	"time"

	"github.com/temoto/atomic_clock"
)

// RateWindow counts processed messages against a per-second ceiling.
// Purely observational: exceeding the ceiling is a log warning for the
// caller, never throttling or backpressure. limit<=0 disables checks
// but the window still rolls.
type RateWindow struct {
	limit  int
	window time.Duration
	count  int
	start  atomic_clock.Clock
}

func NewRateWindow(limit int) *RateWindow {
	rw := &RateWindow{limit: limit, window: time.Second}
	rw.start.SetNow()
	return rw
}

func (rw *RateWindow) Add(n int) { rw.count += n }

// Roll checks whether the current window elapsed. If it did, it resets
// the counter and reports the observed rate plus whether the ceiling
// was exceeded; otherwise rolled is false.
func (rw *RateWindow) Roll() (rate float64, over bool, rolled bool) {
	elapsed := atomic_clock.Since(&rw.start)
	if elapsed < rw.window {
		return 0, false, false
	}
	rate = float64(rw.count) / elapsed.Seconds()
	over = rw.limit > 0 && rate > float64(rw.limit)
	rw.count = 0
	rw.start.SetNow()
	return rate, over, true
}
