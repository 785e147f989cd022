package wdtsleep

import "sync/atomic"

// WakeSource identifies the interrupt that ended a halt.
type WakeSource uint32

const (
	WakeTick WakeSource = 1 << iota
	WakePinChange
)

// Waker latches wake signals raised from interrupt context. Signal is
// safe to call from an ISR: it never blocks or allocates.
type Waker struct {
	flags atomic.Uint32
}

// Signal latches src.
func (w *Waker) Signal(src WakeSource) {
	for {
		old := w.flags.Load()
		if w.flags.CompareAndSwap(old, old|uint32(src)) {
			return
		}
	}
}

// take clears src and reports whether it was latched.
func (w *Waker) take(src WakeSource) bool {
	for {
		old := w.flags.Load()
		if old&uint32(src) == 0 {
			return false
		}
		if w.flags.CompareAndSwap(old, old&^uint32(src)) {
			return true
		}
	}
}

func (w *Waker) clear(src WakeSource) { w.take(src) }
