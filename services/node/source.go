package node

import (
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/aht20"
	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/shtc3"

	"kw9010-node/errcode"
	"kw9010-node/x/mathx"
)

// Sample is one sensor reading in fixed point.
type Sample struct {
	DeciC  int16  // tenths of °C
	DeciRH uint16 // tenths of %RH
	HasRH  bool
}

// Source reads one sensor. Read is called with the sensor rail powered.
type Source interface {
	Read() (Sample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Sample, error)

func (f SourceFunc) Read() (Sample, error) { return f() }

// Static always returns the same sample (or error).
type Static struct {
	Sample Sample
	Err    error
}

func (s *Static) Read() (Sample, error) { return s.Sample, s.Err }

func fault(op string, err error) error {
	return &errcode.E{C: errcode.MapDriverErr(err), Op: op, Err: err}
}

func deciC(v int32) int16 {
	return int16(mathx.Clamp(v, -32768, 32767))
}

// ---- AHT20 (I²C) ----

type aht20Driver interface {
	Read() error
	DeciCelsius() int32
	DeciRelHumidity() int32
}

type AHT20 struct{ dev aht20Driver }

// NewAHT20 configures an AHT20 on bus at the default address.
func NewAHT20(bus drivers.I2C) *AHT20 {
	d := aht20.New(bus)
	d.Configure()
	return &AHT20{dev: &d}
}

func (s *AHT20) Read() (Sample, error) {
	if err := s.dev.Read(); err != nil {
		return Sample{}, fault("aht20", err)
	}
	return Sample{
		DeciC:  deciC(s.dev.DeciCelsius()),
		DeciRH: uint16(mathx.Clamp(s.dev.DeciRelHumidity(), 0, 1000)),
		HasRH:  true,
	}, nil
}

// ---- SHTC3 (I²C) ----

type shtc3Driver interface {
	WakeUp() error
	Sleep() error
	ReadTemperatureHumidity() (int32, int16, error)
}

type SHTC3 struct{ dev shtc3Driver }

func NewSHTC3(bus drivers.I2C) *SHTC3 {
	d := shtc3.New(bus)
	return &SHTC3{dev: &d}
}

func (s *SHTC3) Read() (Sample, error) {
	_ = s.dev.WakeUp()
	defer func() { _ = s.dev.Sleep() }()

	// milli-°C and hundredths of %RH
	tmc, rhx100, err := s.dev.ReadTemperatureHumidity()
	if err != nil {
		return Sample{}, fault("shtc3", err)
	}
	return Sample{
		DeciC:  deciC(tmc / 100),
		DeciRH: uint16(mathx.Clamp(rhx100, 0, 10000) / 10),
		HasRH:  true,
	}, nil
}

// ---- DHT22 / AM2302 (single wire) ----

type dhtDriver interface {
	ReadMeasurements() error
	Measurements() (temperature int16, humidity uint16, err error)
}

type DHT struct{ dev dhtDriver }

// NewDHT wraps a tinygo dht device; construct it with dht.New on target.
func NewDHT(dev dhtDriver) *DHT { return &DHT{dev: dev} }

func (s *DHT) Read() (Sample, error) {
	if err := s.dev.ReadMeasurements(); err != nil {
		return Sample{}, fault("dht", err)
	}
	t, h, err := s.dev.Measurements()
	if err != nil {
		return Sample{}, fault("dht", err)
	}
	return Sample{DeciC: t, DeciRH: mathx.Min(h, 1000), HasRH: true}, nil
}

// ---- DS18B20 (1-Wire, temperature only) ----

// ConversionTime is the DS18B20 worst-case 12-bit conversion.
const ConversionTime = 750 * time.Millisecond

type ds18b20Driver interface {
	RequestTemperature(romid []uint8)
	ReadTemperature(romid []uint8) (int32, error)
}

// DS18B20 addresses the only device on the bus (skip ROM).
type DS18B20 struct {
	dev  ds18b20Driver
	wait func(time.Duration)
}

// NewDS18B20 wraps a 1-Wire bus; on target pass onewire.New(pin).
func NewDS18B20(ow ds18b20.OneWireDevice) *DS18B20 {
	return &DS18B20{dev: ds18b20.New(ow), wait: time.Sleep}
}

func (s *DS18B20) Read() (Sample, error) {
	s.dev.RequestTemperature(nil)
	s.wait(ConversionTime)
	tmc, err := s.dev.ReadTemperature(nil)
	if err != nil {
		return Sample{}, fault("ds18b20", err)
	}
	return Sample{DeciC: deciC(tmc / 100)}, nil
}
