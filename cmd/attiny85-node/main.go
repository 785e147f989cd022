//go:build attiny85

// Command attiny85-node is the original low-power board: an AM2302 on PB4
// and a DS18B20 on PB2 sent over the transmitter on PB1, with the sensor
// and radio supply switched on PB3 and a watchdog sleep of ten minutes
// between samples. The 512 bytes of RAM leave no room for the bus or the
// config service, so the cycle is driven inline.
package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/ds18b20"

	"kw9010-node/drivers/kw9010"
	"kw9010-node/drivers/wdtsleep"
	"kw9010-node/internal/platform"
)

const (
	pinTx   = machine.PB1
	pinDS   = machine.PB2
	pinRail = machine.PB3
	pinDHT  = machine.PB4

	airID      = 0x21 // AM2302
	groundID   = 0x22 // DS18B20
	settle     = 2 * time.Second
	conversion = 750 * time.Millisecond
	sleepTicks = 10 * 60 / 8 // 8 s ticks
)

func main() {
	sched := wdtsleep.New(wdtsleep.NewHardware())
	sched.Init(int(wdtsleep.Timeout8s))

	tx := kw9010.New(platform.OutputPin(pinTx, false), nil)
	tx.Configure()
	rail := platform.BoardRail(pinRail, pinTx, pinDHT, pinDS)
	am2302 := platform.DHT22(pinDHT)
	ground := ds18b20.New(platform.OneWire(pinDS))

	for {
		rail.Set(true)
		time.Sleep(settle)
		if err := am2302.ReadMeasurements(); err == nil {
			if t, h, err := am2302.Measurements(); err == nil {
				tx.Send(kw9010.Reading{Temperature: t, Humidity: h / 10, BatteryOK: true}, kw9010.Identity{ID: airID})
			}
		}

		// Only device on the bus: nil romid selects with skip ROM.
		ground.RequestTemperature(nil)
		time.Sleep(conversion)
		if mc, err := ground.ReadTemperature(nil); err == nil {
			tx.Send(kw9010.Reading{Temperature: int16(mc / 100), BatteryOK: true}, kw9010.Identity{ID: groundID})
		}

		rail.Set(false)
		sched.Sleep(sleepTicks)
	}
}
