//go:build rp2040

// Command sensornode is the Raspberry Pi Pico firmware: an AHT20 on i2c0,
// a DHT22 on GP15 and a DS18B20 on GP14 reported over a 433 MHz OOK
// transmitter on GP16, sampled every ten minutes with the sensor rail on
// GP17.
package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"kw9010-node/bus"
	"kw9010-node/drivers/kw9010"
	"kw9010-node/drivers/wdtsleep"
	"kw9010-node/internal/platform"
	"kw9010-node/services/config"
	"kw9010-node/services/heartbeat"
	"kw9010-node/services/node"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

const (
	pinTx   = machine.GP16
	pinRail = machine.GP17
	pinDHT  = machine.GP15
	pinDS   = machine.GP14
)

var log = logx.New("main")

func main() {
	time.Sleep(3 * time.Second)

	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	logx.SetOutput(uartx.UART0)

	ctx := context.Background()
	log.Info("bootstrapping bus")
	b := bus.NewBus(8)
	cfgConn := b.NewConnection("config")
	nodeConn := b.NewConnection("node")
	monConn := b.NewConnection("monitor")

	mon := monConn.Subscribe(bus.T("node", "#"))
	go monitor(mon)

	i2c, _ := platform.DefaultI2CFactory().ByID("i2c0")
	tx := kw9010.New(platform.OutputPin(pinTx, false), nil)
	tx.Configure()

	svc := node.New(node.Options{
		Tx:    tx,
		Rail:  platform.BoardRail(pinRail, pinTx, pinDHT, pinDS),
		Sleep: wdtsleep.New(wdtsleep.NewHardware()),
		Sources: map[string]node.Source{
			"indoor":  node.NewAHT20(i2c),
			"outdoor": node.NewDHT(platform.DHT22(pinDHT)),
			"ground":  node.NewDS18B20(platform.OneWire(pinDS)),
		},
	})
	_ = svc.Start(ctx, nodeConn)

	hb := &heartbeat.Service{Interval: time.Minute}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	ctx = context.WithValue(ctx, config.CtxDeviceKey, "pico")
	if err := config.NewConfigService().Start(ctx, cfgConn); err != nil {
		log.Error("no config, node idle", logx.Err(err))
	}

	select {}
}

func monitor(sub *bus.Subscription) {
	for m := range sub.Channel() {
		switch v := m.Payload.(type) {
		case types.TxReport:
			if v.Error != "" {
				log.Warn("tx", logx.Str("sensor", v.Sensor), logx.Str("error", v.Error))
			}
		case types.SleepReport:
			printMem()
		}
	}
}

// printMem logs a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.Debug("mem",
		logx.Uint("alloc", ms.Alloc),
		logx.Uint("heap_inuse", ms.HeapInuse),
		logx.Uint("mallocs", ms.Mallocs),
		logx.Uint("frees", ms.Frees),
	)
}
