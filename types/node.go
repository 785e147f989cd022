package types

// ---- Node configuration (retained on "config/node") ----

// SensorKind names the driver behind a binding.
type SensorKind string

const (
	SensorAHT20   SensorKind = "aht20"
	SensorSHTC3   SensorKind = "shtc3"
	SensorDHT22   SensorKind = "dht22"
	SensorDS18B20 SensorKind = "ds18b20"
	SensorStatic  SensorKind = "static" // host fakes and the simulator
)

// SensorBinding ties a sensor to the identity it transmits under.
type SensorBinding struct {
	Name     string     `json:"name"`
	Kind     SensorKind `json:"kind"`
	ID       uint8      `json:"id"`      // 6-bit device id
	Channel  uint8      `json:"channel"` // 0..3
	Humidity bool       `json:"humidity"`
}

type NodeConfig struct {
	Prescale   uint8           `json:"prescale"`    // watchdog table index 0..9
	SleepTicks uint16          `json:"sleep_ticks"` // ticks between cycles
	SettleMs   uint16          `json:"settle_ms"`   // rail-on to first read
	BatteryOK  bool            `json:"battery_ok"`
	Sensors    []SensorBinding `json:"sensors"`
}

// ---- Node events ----

// ReadingValue is retained on "node/reading/<name>".
type ReadingValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
	// Tenths of %RH; zero when the sensor has no humidity.
	DeciRH uint16 `json:"deci_rh"`
	TS     int64  `json:"ts_ms"`
}

// TxReport is published on "node/tx/<name>" once per attempted send.
type TxReport struct {
	Sensor    string  `json:"sensor"`
	ID        uint8   `json:"id"`
	Channel   uint8   `json:"channel"`
	Frame     [5]byte `json:"frame"`
	Sent      bool    `json:"sent"`
	AirtimeUs uint32  `json:"airtime_us,omitempty"`
	Error     string  `json:"error,omitempty"`
	TS        int64   `json:"ts_ms"`
}

// SleepReport is published on "node/sleep" before each sleep.
type SleepReport struct {
	Cycle    uint32 `json:"cycle"`
	Ticks    uint16 `json:"ticks"`
	PeriodMs uint32 `json:"period_ms"`
	TS       int64  `json:"ts_ms"`
}
