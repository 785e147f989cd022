package config

import "kw9010-node/types"

// Compiled-in node setups keyed by device ID (the value placed in ctx
// under CtxDeviceKey).

// 75 ticks of 8 s: one cycle every ten minutes.
const (
	defaultPrescale   = 9
	defaultSleepTicks = 75
)

var setups = map[string]types.NodeConfig{
	"pico": {
		Prescale:   defaultPrescale,
		SleepTicks: defaultSleepTicks,
		SettleMs:   2000,
		BatteryOK:  true,
		Sensors: []types.SensorBinding{
			{Name: "indoor", Kind: types.SensorAHT20, ID: 0x21, Channel: 0, Humidity: true},
			{Name: "outdoor", Kind: types.SensorDHT22, ID: 0x22, Channel: 1, Humidity: true},
			{Name: "ground", Kind: types.SensorDS18B20, ID: 0x24, Channel: 1},
		},
	},
	"pico-shtc3": {
		Prescale:   defaultPrescale,
		SleepTicks: defaultSleepTicks,
		SettleMs:   500,
		BatteryOK:  true,
		Sensors: []types.SensorBinding{
			{Name: "shed", Kind: types.SensorSHTC3, ID: 0x23, Channel: 2, Humidity: true},
		},
	},
}

// Lookup returns the compiled-in setup for device.
func Lookup(device string) (types.NodeConfig, bool) {
	return EmbeddedConfigLookup(device)
}
