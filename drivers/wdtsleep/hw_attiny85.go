//go:build attiny85

package wdtsleep

import (
	"device/avr"
	"runtime/interrupt"
)

// ATtiny25/45/85 register bits.
const (
	wdtcrWDIE = 1 << 6
	wdtcrWDCE = 1 << 4
	wdtcrWDE  = 1 << 3

	mcusrWDRF = 1 << 3

	adcsraADEN = 1 << 7

	mcucrSE  = 1 << 5
	mcucrSM1 = 1 << 4
	mcucrSM0 = 1 << 3

	gimskPCIE = 1 << 5
	gifrPCIF  = 1 << 5
)

var bound *Waker

var (
	_ = interrupt.New(avr.IRQ_WDT, func(interrupt.Interrupt) {
		if bound != nil {
			bound.Signal(WakeTick)
		}
	})
	_ = interrupt.New(avr.IRQ_PCINT0, func(interrupt.Interrupt) {
		if bound != nil {
			bound.Signal(WakePinChange)
		}
	})
)

type avrHardware struct{}

// NewHardware returns the watchdog backend for the ATtiny85.
func NewHardware() Hardware { return avrHardware{} }

func (avrHardware) Bind(w *Waker) { bound = w }

func (avrHardware) ConfigureTimer(p Prescale) {
	st := interrupt.Disable()
	avr.Asm("wdr")
	avr.MCUSR.ClearBits(mcusrWDRF)
	// Timed sequence: WDCE|WDE, then the new value within four cycles.
	avr.WDTCR.SetBits(wdtcrWDCE | wdtcrWDE)
	avr.WDTCR.Set(p.WDP())
	avr.WDTCR.SetBits(wdtcrWDIE)
	interrupt.Restore(st)
}

func (avrHardware) ResetTimer() { avr.Asm("wdr") }

func (avrHardware) SetTimerWake(on bool) {
	if on {
		avr.WDTCR.SetBits(wdtcrWDIE)
	} else {
		avr.WDTCR.ClearBits(wdtcrWDIE)
	}
}

func (avrHardware) SetAnalog(on bool) {
	if on {
		avr.ADCSRA.SetBits(adcsraADEN)
	} else {
		avr.ADCSRA.ClearBits(adcsraADEN)
	}
}

func (avrHardware) ArmPinChange(mask uint8) {
	avr.PCMSK.SetBits(mask)
	avr.GIFR.SetBits(gifrPCIF) // write-one-to-clear
	avr.GIMSK.SetBits(gimskPCIE)
}

func (avrHardware) DisarmPinChange() { avr.GIMSK.ClearBits(gimskPCIE) }

func (avrHardware) DisableInterrupts() { avr.Asm("cli") }

func (avrHardware) EnableInterrupts() { avr.Asm("sei") }

func (avrHardware) Halt() {
	// Power-down: SM1=1, SM0=0.
	avr.MCUCR.ClearBits(mcucrSM0)
	avr.MCUCR.SetBits(mcucrSM1 | mcucrSE)
	avr.Asm("sei")
	avr.Asm("sleep")
	avr.MCUCR.ClearBits(mcucrSE)
}
