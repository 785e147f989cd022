// Command kw9010sim runs the sensor node on the host. Sensors come from
// an ini file, the transmitter is a recording pin and every transmission
// is decoded again as a base station would.
//
//	kw9010sim --config-file sensors.ini --cycles 5 --web.listen-address :9110
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"kw9010-node/bus"
	"kw9010-node/drivers/kw9010"
	"kw9010-node/drivers/wdtsleep"
	"kw9010-node/internal/platform"
	"kw9010-node/services/config"
	"kw9010-node/services/node"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

const simDevice = "sim"

var (
	configFile    = flag.String("config-file", "sensors.ini", "Sensor definitions")
	cycles        = flag.Int("cycles", 3, "Node cycles to run")
	prescale      = flag.Int("prescale", int(wdtsleep.Timeout16ms), "Watchdog prescale index (0..9)")
	listenAddress = flag.String("web.listen-address", "", "Serve /metrics here after the run (empty: exit)")
	debug         = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	var (
		zl  *zap.Logger
		err error
	)
	if *debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	logx.SetSink(zapSink(zl))
	if *debug {
		logx.SetLevel(logx.LevelDebug)
	}

	cfg, err := loadConfig(*configFile, *prescale)
	if err != nil {
		log.Fatalw("loading config", "file", *configFile, "error", err)
	}

	res, err := run(context.Background(), zl, cfg, *cycles)
	if err != nil {
		log.Fatalw("run failed", "error", err)
	}
	log.Infow("done", "cycles", *cycles, "sent", res.sent, "decoded", res.ok, "rail_edges", res.railEdges)

	if *listenAddress != "" {
		log.Infow("serving metrics", "address", *listenAddress)
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*listenAddress, nil); err != nil {
			log.Fatalw("http server", "error", err)
		}
	}
}

type result struct {
	sent, ok  int
	railEdges int
	reports   []types.TxReport
}

// run wires the node to host fakes and drives it for n cycles.
func run(ctx context.Context, zl *zap.Logger, cfg *simConfig, n int) (*result, error) {
	if err := config.Validate(cfg.Node); err != nil {
		return nil, err
	}
	config.EmbeddedConfigLookup = func(device string) (types.NodeConfig, bool) {
		return cfg.Node, device == simDevice
	}

	names := make(map[kw9010.Identity]string, len(cfg.Sensors))
	sources := make(map[string]node.Source, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		names[kw9010.Identity{ID: s.Binding.ID, Channel: s.Binding.Channel}] = s.Binding.Name
		sources[s.Binding.Name] = newSource(s)
	}

	tx := newTap(zl, names)
	rail := platform.NewFakePin(17)
	svc := node.New(node.Options{
		Tx:        tx,
		Rail:      rail,
		Sleep:     wdtsleep.New(wdtsleep.NewTimerHardware()),
		Sources:   sources,
		MaxCycles: n,
	})

	b := bus.NewBus(64)
	mon := b.NewConnection("monitor")
	txSub := mon.Subscribe(bus.T("node", "tx", "+"))
	defer mon.Disconnect()

	cctx := context.WithValue(ctx, config.CtxDeviceKey, simDevice)
	if err := config.NewConfigService().Start(cctx, b.NewConnection("config")); err != nil {
		return nil, err
	}
	if err := svc.Run(ctx, b.NewConnection("node")); err != nil {
		return nil, err
	}

	res := &result{sent: tx.sent, ok: tx.ok, railEdges: rail.Edges()}
	for len(txSub.Channel()) > 0 {
		m := <-txSub.Channel()
		rep := m.Payload.(types.TxReport)
		if rep.Error != "" {
			readErrors.WithLabelValues(rep.Sensor, rep.Error).Inc()
		}
		res.reports = append(res.reports, rep)
	}
	return res, nil
}

// newSource emulates the sensor: aht20 sections go through the real
// driver against an I²C emulator, the rest are static values.
func newSource(s simSensor) node.Source {
	if s.Binding.Kind == types.SensorAHT20 {
		emu := platform.NewAHT20Emu(int32(s.DeciC), int32(s.DeciRH))
		src := node.NewAHT20(emu)
		c := int32(s.DeciC)
		return node.SourceFunc(func() (node.Sample, error) {
			smp, err := src.Read()
			c += int32(s.StepC)
			emu.Set(c, int32(s.DeciRH))
			return smp, err
		})
	}
	c := s.DeciC
	return node.SourceFunc(func() (node.Sample, error) {
		smp := node.Sample{DeciC: c, DeciRH: s.DeciRH, HasRH: s.Binding.Humidity}
		c += s.StepC
		return smp, nil
	})
}

// zapSink forwards firmware log lines to zap.
func zapSink(l *zap.Logger) logx.Sink {
	return func(lvl logx.Level, tag, msg string, fields []logx.Field) {
		zf := make([]zap.Field, 0, len(fields)+1)
		zf = append(zf, zap.String("component", tag))
		for _, f := range fields {
			zf = append(zf, zap.Any(f.Key, f.Value()))
		}
		switch lvl {
		case logx.LevelDebug:
			l.Debug(msg, zf...)
		case logx.LevelWarn:
			l.Warn(msg, zf...)
		case logx.LevelError:
			l.Error(msg, zf...)
		default:
			l.Info(msg, zf...)
		}
	}
}
