package wdtsleep

import (
	"time"

	"kw9010-node/x/mathx"
)

// Hardware is the register-level surface the scheduler drives.
type Hardware interface {
	// Bind installs the latch the interrupt handlers signal.
	Bind(w *Waker)
	// ConfigureTimer programs the prescaler in interrupt mode and clears
	// any watchdog reset flag.
	ConfigureTimer(p Prescale)
	// ResetTimer restarts the current watchdog period.
	ResetTimer()
	// SetTimerWake enables or disables the watchdog interrupt.
	SetTimerWake(on bool)
	// SetAnalog powers the ADC.
	SetAnalog(on bool)
	// ArmPinChange clears a pending pin-change flag, unmasks the pins in
	// mask and enables the pin-change interrupt.
	ArmPinChange(mask uint8)
	// DisarmPinChange disables the pin-change interrupt.
	DisarmPinChange()
	DisableInterrupts()
	EnableInterrupts()
	// Halt enables interrupts and enters power-down in one step, so an
	// interrupt pending since DisableInterrupts still ends the halt.
	Halt()
}

// Scheduler sleeps the CPU in watchdog ticks.
type Scheduler struct {
	hw   Hardware
	wake Waker
	p    Prescale
}

// New binds a scheduler to hw. Call Init before sleeping.
func New(hw Hardware) *Scheduler {
	s := &Scheduler{hw: hw}
	hw.Bind(&s.wake)
	return s
}

// Init configures the tick from a table index (0 = 16 ms .. 9 = 8 s).
// Indexes above 9 are clamped. It returns the prescale in effect.
func (s *Scheduler) Init(index int) Prescale {
	s.p = ClampPrescale(index)
	s.hw.ConfigureTimer(s.p)
	return s.p
}

// Period returns the configured tick.
func (s *Scheduler) Period() time.Duration { return s.p.Period() }

// TicksFor converts d into whole ticks, rounding up and saturating at
// the largest request Sleep accepts.
func (s *Scheduler) TicksFor(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	n := mathx.CeilDiv(uint64(d), uint64(s.Period()))
	return uint16(mathx.Min(n, uint64(^uint16(0))))
}

// Sleep halts for ticks watchdog periods. The ADC is off for the whole
// sleep. Wake-ups from other sources do not count. ticks == 0 returns at
// once without halting.
func (s *Scheduler) Sleep(ticks uint16) {
	if ticks == 0 {
		return
	}
	s.hw.ResetTimer()
	s.wake.clear(WakeTick)
	s.hw.SetAnalog(false)
	for n := uint16(0); n < ticks; n++ {
		s.wait(WakeTick)
	}
	s.hw.SetAnalog(true)
}

// SleepUntilPinChange halts until a pin-change interrupt on mask. The
// watchdog wake is off meanwhile. Interrupts are enabled on return
// whatever their state on entry.
func (s *Scheduler) SleepUntilPinChange(mask uint8) {
	s.hw.ResetTimer()
	s.hw.SetAnalog(false)
	s.hw.SetTimerWake(false)
	s.wake.clear(WakePinChange)
	s.hw.ArmPinChange(mask)
	s.wait(WakePinChange)
	s.hw.DisableInterrupts()
	s.hw.DisarmPinChange()
	s.hw.EnableInterrupts()
	s.hw.SetTimerWake(true)
	s.hw.SetAnalog(true)
}

// wait halts until src is latched, consuming it.
func (s *Scheduler) wait(src WakeSource) {
	for {
		s.hw.DisableInterrupts()
		if s.wake.take(src) {
			s.hw.EnableInterrupts()
			return
		}
		s.hw.Halt()
	}
}
