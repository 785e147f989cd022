//go:build !tinygo

package platform

import (
	"sync"

	"tinygo.org/x/drivers"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin is an output pin for host runs. It satisfies kw9010.Pin,
// node.Rail and RailPin.
type FakePin struct {
	mu       sync.Mutex
	number   int
	level    bool
	floating bool
	edges    int
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	if level != p.level {
		p.edges++
	}
	p.level = level
	p.floating = false
	p.mu.Unlock()
}

// Float releases the pin; it reads low until driven again.
func (p *FakePin) Float() {
	p.mu.Lock()
	if p.level {
		p.edges++
	}
	p.level = false
	p.floating = true
	p.mu.Unlock()
}

func (p *FakePin) Floating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.floating
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Edges counts level changes.
func (p *FakePin) Edges() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.edges
}

// ----------------------------- I²C (host) ------------------------------------

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// I2CFactory resolves a bus by ID ("i2c0", ...).
type I2CFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// HostI2CFactory serves the given buses, typically sensor emulators.
func HostI2CFactory(buses map[string]drivers.I2C) I2CFactory {
	return &hostI2CFactory{buses: buses}
}
