//go:build tinygo

package platform

import (
	"machine"

	"tinygo.org/x/drivers/dht"
	"tinygo.org/x/drivers/onewire"
)

// OutputPin configures p as a push-pull output at the given level.
// machine.Pin then satisfies kw9010.Pin and node.Rail directly.
func OutputPin(p machine.Pin, initial bool) machine.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(initial)
	return p
}

// mcuPin adapts a machine.Pin to RailPin.
type mcuPin machine.Pin

func (p mcuPin) Set(level bool) { OutputPin(machine.Pin(p), level) }

func (p mcuPin) Float() {
	machine.Pin(p).Set(false)
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinInput})
}

// BoardRail returns a Rail switching vcc that floats tx and data when off.
func BoardRail(vcc, tx machine.Pin, data ...machine.Pin) *Rail {
	ds := make([]RailPin, len(data))
	for i, p := range data {
		ds[i] = mcuPin(p)
	}
	return NewRail(mcuPin(vcc), mcuPin(tx), ds...)
}

// DHT22 returns a manually updated DHT22/AM2302 on pin.
func DHT22(pin machine.Pin) dht.Device {
	d := dht.New(pin, dht.DHT22)
	d.Configure(dht.UpdatePolicy{UpdateAutomatically: false})
	return d
}

// OneWire returns a 1-Wire bus on pin (external 4k7 pull-up).
func OneWire(pin machine.Pin) onewire.Device {
	ow := onewire.New(pin)
	ow.Configure(onewire.Config{})
	return ow
}
