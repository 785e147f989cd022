// Package node runs the sensor node's duty cycle: power the sensor rail,
// read every bound sensor, transmit one KW9010 frame per reading, power
// down and sleep for the configured number of watchdog ticks.
//
// The node waits for its configuration on "config/node" and publishes:
//
//	node/reading/<name>  types.ReadingValue (retained)
//	node/tx/<name>       types.TxReport
//	node/sleep           types.SleepReport
package node

import (
	"context"
	"time"

	"kw9010-node/bus"
	"kw9010-node/drivers/kw9010"
	"kw9010-node/drivers/wdtsleep"
	"kw9010-node/errcode"
	"kw9010-node/types"
	"kw9010-node/x/conv"
	"kw9010-node/x/logx"
	"kw9010-node/x/timex"
)

var (
	topicConfigNode = bus.T("config", "node")
	TopicSleep      = bus.T("node", "sleep")
)

func TopicReading(name string) bus.Topic { return bus.T("node", "reading", name) }
func TopicTx(name string) bus.Topic      { return bus.T("node", "tx", name) }

// Sender encodes and radiates frames (kw9010.Device).
type Sender interface {
	Send(r kw9010.Reading, id kw9010.Identity) kw9010.Frame
	Airtime(f kw9010.Frame, nbits int) uint32
}

// Rail switches the sensor and transmitter supply.
type Rail interface {
	Set(on bool)
}

// Sleeper is the duty-cycle scheduler (wdtsleep.Scheduler).
type Sleeper interface {
	Init(index int) wdtsleep.Prescale
	Period() time.Duration
	Sleep(ticks uint16)
}

type Options struct {
	Tx      Sender
	Rail    Rail
	Sleep   Sleeper
	Sources map[string]Source // keyed by binding name
	// Settle waits for the rail to stabilise. Default time.Sleep.
	Settle func(time.Duration)
	// MaxCycles stops Run after that many cycles. Zero runs forever.
	MaxCycles int
}

type Service struct {
	tx      Sender
	rail    Rail
	sleep   Sleeper
	sources map[string]Source
	settle  func(time.Duration)
	max     int
	log     logx.Logger

	prescaled bool
	cycle     uint32
}

func New(o Options) *Service {
	s := &Service{
		tx:      o.Tx,
		rail:    o.Rail,
		sleep:   o.Sleep,
		sources: o.Sources,
		settle:  o.Settle,
		max:     o.MaxCycles,
		log:     logx.New("node"),
	}
	if s.settle == nil {
		s.settle = time.Sleep
	}
	if s.sources == nil {
		s.sources = map[string]Source{}
	}
	return s
}

// Start runs the node loop in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go func() { _ = s.Run(ctx, conn) }()
	return nil
}

// Run blocks until ctx is done or MaxCycles cycles have completed. It
// waits for the first configuration before doing anything.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	cfgSub := conn.Subscribe(topicConfigNode)
	defer conn.Unsubscribe(cfgSub)

	var cfg types.NodeConfig
	for have := false; !have; {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return ctx.Err()
		case msg := <-cfgSub.Channel():
			have = s.apply(&cfg, msg)
		}
	}

	for n := 0; s.max == 0 || n < s.max; n++ {
		// Take the newest config without blocking.
		for drained := false; !drained; {
			select {
			case msg := <-cfgSub.Channel():
				s.apply(&cfg, msg)
			default:
				drained = true
			}
		}

		s.Cycle(cfg, conn)
		if err := ctx.Err(); err != nil {
			s.log.Info("stopping")
			return err
		}
		s.Rest(cfg, conn)
	}
	return nil
}

// apply installs a config message. The watchdog prescale is applied
// from the first config only.
func (s *Service) apply(cfg *types.NodeConfig, msg *bus.Message) bool {
	c, ok := msg.Payload.(types.NodeConfig)
	if !ok {
		s.log.Warn("ignoring config", logx.Str("error", string(errcode.InvalidParams)))
		return false
	}
	if !s.prescaled {
		p := s.sleep.Init(int(c.Prescale))
		s.prescaled = true
		s.log.Info("watchdog", logx.Uint("prescale", uint64(p)), logx.Int("period_ms", p.Period().Milliseconds()))
	} else if c.Prescale != cfg.Prescale {
		s.log.Warn("prescale change needs a restart", logx.Uint("prescale", uint64(c.Prescale)))
		c.Prescale = cfg.Prescale
	}
	*cfg = c
	s.log.Info("config", logx.Int("sensors", int64(len(c.Sensors))), logx.Uint("sleep_ticks", uint64(c.SleepTicks)))
	return true
}

// Cycle powers the rail, samples and transmits every bound sensor, then
// powers the rail down. It returns one report per binding.
func (s *Service) Cycle(cfg types.NodeConfig, conn *bus.Connection) []types.TxReport {
	s.cycle++
	s.rail.Set(true)
	if cfg.SettleMs > 0 {
		s.settle(time.Duration(cfg.SettleMs) * time.Millisecond)
	}

	reports := make([]types.TxReport, 0, len(cfg.Sensors))
	for _, b := range cfg.Sensors {
		rep := s.sample(b, cfg.BatteryOK, conn)
		if conn != nil {
			conn.Publish(conn.NewMessage(TopicTx(b.Name), rep, false))
		}
		reports = append(reports, rep)
	}

	s.rail.Set(false)
	return reports
}

func (s *Service) sample(b types.SensorBinding, batteryOK bool, conn *bus.Connection) types.TxReport {
	rep := types.TxReport{Sensor: b.Name, ID: b.ID, Channel: b.Channel}

	src, ok := s.sources[b.Name]
	if !ok {
		rep.Error = string(errcode.UnknownSensor)
		rep.TS = timex.NowMs()
		s.log.Error("no source", logx.Str("sensor", b.Name))
		return rep
	}
	smp, err := src.Read()
	if err != nil {
		rep.Error = string(errcode.MapDriverErr(err))
		rep.TS = timex.NowMs()
		s.log.Warn("read failed", logx.Str("sensor", b.Name), logx.Err(err))
		return rep
	}

	val := types.ReadingValue{DeciC: smp.DeciC, TS: timex.NowMs()}
	if smp.HasRH {
		val.DeciRH = smp.DeciRH
	}
	if conn != nil {
		conn.Publish(conn.NewMessage(TopicReading(b.Name), val, true))
	}

	// The frame carries whole percent; temperature-only bindings send 0.
	var rh uint16
	if b.Humidity && smp.HasRH {
		rh = smp.DeciRH / 10
	}
	f := s.tx.Send(
		kw9010.Reading{Temperature: smp.DeciC, Humidity: rh, BatteryOK: batteryOK},
		kw9010.Identity{ID: b.ID, Channel: b.Channel},
	)

	rep.Frame = f
	rep.Sent = true
	rep.AirtimeUs = s.tx.Airtime(f, kw9010.FrameBits)
	rep.TS = timex.NowMs()
	s.log.Info("frame sent",
		logx.Str("sensor", b.Name),
		logx.Hex("id", uint64(b.ID), 2),
		logx.Int("deci_c", int64(smp.DeciC)),
		logx.Uint("rh", uint64(rh)),
		logx.Str("frame", string(conv.AppendHexBytes(make([]byte, 0, 2*len(f)), f[:]))),
	)
	return rep
}

// Rest publishes a sleep report and sleeps cfg.SleepTicks ticks.
func (s *Service) Rest(cfg types.NodeConfig, conn *bus.Connection) {
	rep := types.SleepReport{
		Cycle:    s.cycle,
		Ticks:    cfg.SleepTicks,
		PeriodMs: uint32(s.sleep.Period().Milliseconds()),
		TS:       timex.NowMs(),
	}
	if conn != nil {
		conn.Publish(conn.NewMessage(TopicSleep, rep, false))
	}
	s.log.Debug("sleep", logx.Uint("ticks", uint64(cfg.SleepTicks)))
	s.sleep.Sleep(cfg.SleepTicks)
}
