// Package wdtsleep approximates long low-power sleeps with watchdog ticks.
//
// The watchdog is configured once with a prescale (16 ms .. 8 s per tick)
// and set to interrupt instead of reset. Sleep halts the CPU in its
// deepest state and counts tick wake-ups until the request is met:
//
//	s := wdtsleep.New(wdtsleep.NewHardware())
//	s.Init(9)     // 8 s ticks
//	s.Sleep(75)   // ~10 min
//
// The interrupt handlers only latch a wake flag (see Waker); all counting
// happens in the sleeping context. Sleep is not cancellable.
package wdtsleep

import (
	"time"

	"kw9010-node/x/mathx"
)

// Prescale indexes the watchdog timeout table. Each step roughly doubles
// the tick.
type Prescale uint8

const (
	Timeout16ms Prescale = iota
	Timeout32ms
	Timeout64ms
	Timeout128ms
	Timeout250ms
	Timeout500ms
	Timeout1s
	Timeout2s
	Timeout4s
	Timeout8s

	MaxPrescale = Timeout8s
)

var periods = [...]time.Duration{
	16 * time.Millisecond,
	32 * time.Millisecond,
	64 * time.Millisecond,
	128 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// ClampPrescale maps any index onto 0..MaxPrescale.
func ClampPrescale(index int) Prescale {
	return Prescale(mathx.Clamp(index, 0, int(MaxPrescale)))
}

// PrescaleFor returns the largest prescale whose tick does not exceed d,
// or the smallest one when d is shorter than every tick.
func PrescaleFor(d time.Duration) Prescale {
	p := Timeout16ms
	for i, per := range periods {
		if per <= d {
			p = Prescale(i)
		}
	}
	return p
}

// Period is the nominal tick length.
func (p Prescale) Period() time.Duration {
	return periods[mathx.Min(p, MaxPrescale)]
}

// WDP returns the prescaler field as laid out in WDTCR: bits 2..0 carry
// the low three index bits and bit 5 (WDP3) the fourth.
func (p Prescale) WDP() uint8 {
	p = mathx.Min(p, MaxPrescale)
	bb := uint8(p) & 0x07
	if p > 7 {
		bb |= 1 << 5
	}
	return bb
}
