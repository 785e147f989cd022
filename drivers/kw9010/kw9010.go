// Package kw9010 emulates the 433 MHz transmission of a KW9010
// temperature/humidity sender.
//
// A reading is packed into a 36-bit frame, protected by a 4-bit checksum
// and sent three times, each repeat preceded by a long sync pulse. Bits
// are pulse-distance modulated on a single output pin:
//
//	sync: toggle, hold 9000 µs
//	0:    toggle, hold 1000 µs, toggle back, hold 2000 µs
//	1:    toggle, hold 1000 µs, toggle back, hold 4000 µs
//
// Usage:
//
//	d := kw9010.New(pin, kw9010.BusyWait)
//	d.Configure()
//	d.Send(kw9010.Reading{Temperature: 215, Humidity: 45, BatteryOK: true},
//		kw9010.Identity{ID: 0x21})
//
// Transmission busy-waits for the whole burst (~1 s). Callers must keep
// other work off the CPU while it runs; the receiver's tolerance is the
// only margin for jitter.
package kw9010

// Pin is the transmitter data line. machine.Pin satisfies it.
type Pin interface {
	Set(level bool)
}

// Delay blocks for us microseconds without yielding to other work.
type Delay func(us uint32)

// Protocol timings (µs) and repeat count.
const (
	TimeSync    = 9000
	TimeZero    = 2000
	TimeOne     = 4000
	TimeDummy   = 1000
	RepeatCount = 3
)

// Config overrides protocol timings. Zero fields take the defaults above.
type Config struct {
	SyncUs  uint32
	ZeroUs  uint32
	OneUs   uint32
	DummyUs uint32
	Repeats int
}

// Device drives one transmitter pin.
type Device struct {
	pin   Pin
	delay Delay
	cfg   Config
}

// New binds a transmitter to an output pin that is already configured as
// an output. It does not touch the pin.
func New(pin Pin, delay Delay) *Device {
	if delay == nil {
		delay = BusyWait
	}
	return &Device{pin: pin, delay: delay}
}

// Configure applies optional timing overrides and drives the pin idle.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.SyncUs == 0 {
		c.SyncUs = TimeSync
	}
	if c.ZeroUs == 0 {
		c.ZeroUs = TimeZero
	}
	if c.OneUs == 0 {
		c.OneUs = TimeOne
	}
	if c.DummyUs == 0 {
		c.DummyUs = TimeDummy
	}
	if c.Repeats <= 0 {
		c.Repeats = RepeatCount
	}
	d.cfg = c
	d.pin.Set(false)
}

// Timings returns the active configuration.
func (d *Device) Timings() Config {
	if d.cfg.Repeats == 0 {
		d.Configure()
	}
	return d.cfg
}

// Send builds the frame for r and transmits it. It returns the frame sent.
func (d *Device) Send(r Reading, id Identity) Frame {
	f := Build(r, id)
	d.Transmit(f, FrameBits)
	return f
}
