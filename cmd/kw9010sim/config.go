package main

import (
	"math"
	"strconv"

	"gopkg.in/ini.v1"

	"kw9010-node/errcode"
	"kw9010-node/types"
)

// simSensor is one ini section.
type simSensor struct {
	Binding types.SensorBinding
	DeciC   int16
	DeciRH  uint16
	StepC   int16 // added per cycle
}

type simConfig struct {
	Node    types.NodeConfig
	Sensors []simSensor
}

// loadConfig reads sensors from an ini file. Global keys (battery_ok,
// sleep_ticks, settle_ms) live in the default section; every other
// section is a sensor named after it.
func loadConfig(file string, prescale int) (*simConfig, error) {
	f, err := ini.Load(file)
	if err != nil {
		return nil, err
	}
	return parseConfig(f, prescale)
}

func parseConfig(f *ini.File, prescale int) (*simConfig, error) {
	def := f.Section(ini.DefaultSection)
	c := &simConfig{
		Node: types.NodeConfig{
			Prescale:   uint8(prescale),
			SleepTicks: uint16(def.Key("sleep_ticks").MustUint(1)),
			SettleMs:   uint16(def.Key("settle_ms").MustUint(0)),
			BatteryOK:  def.Key("battery_ok").MustBool(true),
		},
	}

	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		id, err := strconv.ParseUint(sec.Key("id").MustString("0"), 0, 8)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "ini", Msg: sec.Name() + ".id", Err: err}
		}
		ch, err := strconv.ParseUint(sec.Key("channel").MustString("0"), 0, 8)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "ini", Msg: sec.Name() + ".channel", Err: err}
		}
		kind := types.SensorKind(sec.Key("kind").In(string(types.SensorStatic),
			[]string{string(types.SensorStatic), string(types.SensorAHT20)}))

		s := simSensor{
			Binding: types.SensorBinding{
				Name:     sec.Name(),
				Kind:     kind,
				ID:       uint8(id),
				Channel:  uint8(ch),
				Humidity: sec.Key("humidity_capable").MustBool(true),
			},
			DeciC:  deci(sec.Key("temperature").MustFloat64(20)),
			DeciRH: uint16(deci(math.Max(0, sec.Key("humidity").MustFloat64(50)))),
			StepC:  deci(sec.Key("step").MustFloat64(0)),
		}
		c.Sensors = append(c.Sensors, s)
		c.Node.Sensors = append(c.Node.Sensors, s.Binding)
	}
	return c, nil
}

func deci(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v*10))))
}
