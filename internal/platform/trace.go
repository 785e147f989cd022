package platform

import (
	"sync"
	"time"

	"kw9010-node/drivers/kw9010"
	"kw9010-node/x/timex"
)

// TracePin records what a transmitter would radiate. It implements
// kw9010.Pin and its Delay method is a kw9010.Delay that advances a
// virtual clock instead of waiting, so whole transmissions replay
// instantly on the host.
type TracePin struct {
	mu      sync.Mutex
	level   bool
	pulses  []kw9010.Pulse
	elapsed uint64 // µs
	writes  int
}

func (p *TracePin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.writes++
	p.mu.Unlock()
}

// Delay holds the current level for us microseconds.
func (p *TracePin) Delay(us uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elapsed += uint64(us)
	if n := len(p.pulses); n > 0 && p.pulses[n-1].High == p.level {
		p.pulses[n-1].Us += us
		return
	}
	p.pulses = append(p.pulses, kw9010.Pulse{High: p.level, Us: us})
}

// Take returns the recorded pulses and starts a new recording.
func (p *TracePin) Take() []kw9010.Pulse {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pulses
	p.pulses = nil
	return out
}

func (p *TracePin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Elapsed is the virtual time spent in Delay since creation.
func (p *TracePin) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.elapsed) * timex.Micros(1)
}

// Writes counts Set calls.
func (p *TracePin) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}
