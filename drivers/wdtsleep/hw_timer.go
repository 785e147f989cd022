//go:build !attiny85

package wdtsleep

import (
	"sync"
	"time"
)

// TimerHardware emulates the watchdog with a free-running deadline. It
// backs the scheduler on boards without an AVR watchdog and in tests.
type TimerHardware struct {
	mu        sync.Mutex
	w         *Waker
	period    time.Duration
	next      time.Time
	timerWake bool
	pinArmed  bool
	analog    bool
	halts     int
	pin       chan struct{}
}

// NewHardware returns a timer-backed emulation.
func NewHardware() Hardware { return NewTimerHardware() }

func NewTimerHardware() *TimerHardware {
	return &TimerHardware{analog: true, pin: make(chan struct{}, 1)}
}

func (h *TimerHardware) Bind(w *Waker) {
	h.mu.Lock()
	h.w = w
	h.mu.Unlock()
}

func (h *TimerHardware) ConfigureTimer(p Prescale) {
	h.mu.Lock()
	h.period = p.Period()
	h.next = time.Now().Add(h.period)
	h.timerWake = true
	h.mu.Unlock()
}

func (h *TimerHardware) ResetTimer() {
	h.mu.Lock()
	h.next = time.Now().Add(h.period)
	h.mu.Unlock()
}

func (h *TimerHardware) SetTimerWake(on bool) {
	h.mu.Lock()
	h.timerWake = on
	h.mu.Unlock()
}

func (h *TimerHardware) SetAnalog(on bool) {
	h.mu.Lock()
	h.analog = on
	h.mu.Unlock()
}

// Analog reports whether the emulated ADC is powered.
func (h *TimerHardware) Analog() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.analog
}

// Halts returns how many times the CPU was halted.
func (h *TimerHardware) Halts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.halts
}

func (h *TimerHardware) ArmPinChange(uint8) {
	// Drop an edge seen while disarmed.
	select {
	case <-h.pin:
	default:
	}
	h.mu.Lock()
	h.pinArmed = true
	h.mu.Unlock()
}

func (h *TimerHardware) DisarmPinChange() {
	h.mu.Lock()
	h.pinArmed = false
	h.mu.Unlock()
}

// TriggerPinChange raises a pin-change edge. It never blocks.
func (h *TimerHardware) TriggerPinChange() {
	select {
	case h.pin <- struct{}{}:
	default:
	}
}

func (h *TimerHardware) DisableInterrupts() {}
func (h *TimerHardware) EnableInterrupts()  {}

// Halt blocks until the next tick deadline or a pin-change edge,
// whichever wake source is enabled.
func (h *TimerHardware) Halt() {
	h.mu.Lock()
	h.halts++
	var tick <-chan time.Time
	if h.timerWake && h.period > 0 {
		tm := time.NewTimer(time.Until(h.next))
		defer tm.Stop()
		tick = tm.C
	}
	h.mu.Unlock()

	for {
		select {
		case <-tick:
			h.mu.Lock()
			h.next = h.next.Add(h.period)
			if now := time.Now(); h.next.Before(now) {
				h.next = now.Add(h.period)
			}
			w := h.w
			h.mu.Unlock()
			if w != nil {
				w.Signal(WakeTick)
			}
			return
		case <-h.pin:
			h.mu.Lock()
			armed, w := h.pinArmed, h.w
			h.mu.Unlock()
			if !armed {
				continue
			}
			if w != nil {
				w.Signal(WakePinChange)
			}
			return
		}
	}
}
