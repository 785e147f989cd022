package kw9010

import (
	"time"

	"kw9010-node/x/timex"
)

// BusyWait spins on the monotonic clock for us microseconds. It never
// sleeps, so the scheduler cannot stretch a pulse.
func BusyWait(us uint32) {
	d := timex.Micros(us)
	start := time.Now()
	for time.Since(start) < d {
	}
}
