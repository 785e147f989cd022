package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"kw9010-node/bus"
	"kw9010-node/drivers/kw9010"
	"kw9010-node/drivers/wdtsleep"
	"kw9010-node/errcode"
	"kw9010-node/types"
)

// ---- fakes ----

type sent struct {
	r  kw9010.Reading
	id kw9010.Identity
}

type fakeTx struct {
	sends  []sent
	railOn *bool
	offAir int // sends while the rail was off
}

func (f *fakeTx) Send(r kw9010.Reading, id kw9010.Identity) kw9010.Frame {
	if f.railOn != nil && !*f.railOn {
		f.offAir++
	}
	f.sends = append(f.sends, sent{r, id})
	return kw9010.Build(r, id)
}

func (f *fakeTx) Airtime(kw9010.Frame, int) uint32 { return 1234 }

type fakeRail struct {
	on    bool
	edges []bool
}

func (r *fakeRail) Set(on bool) { r.on = on; r.edges = append(r.edges, on) }

type fakeSleeper struct {
	p     wdtsleep.Prescale
	inits int
	slept []uint16
}

func (s *fakeSleeper) Init(i int) wdtsleep.Prescale {
	s.inits++
	s.p = wdtsleep.ClampPrescale(i)
	return s.p
}
func (s *fakeSleeper) Period() time.Duration { return s.p.Period() }
func (s *fakeSleeper) Sleep(ticks uint16)    { s.slept = append(s.slept, ticks) }

type rig struct {
	svc   *Service
	tx    *fakeTx
	rail  *fakeRail
	sleep *fakeSleeper
	settl []time.Duration
}

func newRig(sources map[string]Source, maxCycles int) *rig {
	r := &rig{rail: &fakeRail{}, sleep: &fakeSleeper{}}
	r.tx = &fakeTx{railOn: &r.rail.on}
	r.svc = New(Options{
		Tx:        r.tx,
		Rail:      r.rail,
		Sleep:     r.sleep,
		Sources:   sources,
		Settle:    func(d time.Duration) { r.settl = append(r.settl, d) },
		MaxCycles: maxCycles,
	})
	return r
}

func twoSensors() types.NodeConfig {
	return types.NodeConfig{
		Prescale:   9,
		SleepTicks: 75,
		SettleMs:   2000,
		BatteryOK:  true,
		Sensors: []types.SensorBinding{
			{Name: "outdoor", ID: 0x21, Channel: 0, Humidity: true},
			{Name: "ground", ID: 0x22, Channel: 1},
		},
	}
}

// ---- tests ----

func TestCycleSendsOneFramePerSensor(t *testing.T) {
	r := newRig(map[string]Source{
		"outdoor": &Static{Sample: Sample{DeciC: 215, DeciRH: 456, HasRH: true}},
		"ground":  &Static{Sample: Sample{DeciC: -35}},
	}, 0)

	reps := r.svc.Cycle(twoSensors(), nil)

	if len(r.tx.sends) != 2 || len(reps) != 2 {
		t.Fatalf("sends=%d reports=%d, want 2/2", len(r.tx.sends), len(reps))
	}
	want0 := sent{kw9010.Reading{Temperature: 215, Humidity: 45, BatteryOK: true}, kw9010.Identity{ID: 0x21}}
	want1 := sent{kw9010.Reading{Temperature: -35, Humidity: 0, BatteryOK: true}, kw9010.Identity{ID: 0x22, Channel: 1}}
	if r.tx.sends[0] != want0 || r.tx.sends[1] != want1 {
		t.Fatalf("sends = %+v", r.tx.sends)
	}
	if r.tx.offAir != 0 {
		t.Fatalf("%d frames sent with the rail off", r.tx.offAir)
	}
	if len(r.rail.edges) != 2 || !r.rail.edges[0] || r.rail.edges[1] {
		t.Fatalf("rail edges = %v, want [true false]", r.rail.edges)
	}
	if len(r.settl) != 1 || r.settl[0] != 2*time.Second {
		t.Fatalf("settle = %v", r.settl)
	}
	for _, rep := range reps {
		if !rep.Sent || rep.Error != "" || rep.AirtimeUs != 1234 {
			t.Fatalf("report = %+v", rep)
		}
	}
	if got, _, ok := kw9010.Parse(reps[0].Frame); !ok || got.Temperature != 215 || got.Humidity != 45 {
		t.Fatalf("report frame parses to %+v ok=%v", got, ok)
	}
}

func TestHumidityIgnoredWhenBindingHasNone(t *testing.T) {
	r := newRig(map[string]Source{
		"outdoor": &Static{Sample: Sample{DeciC: 100, DeciRH: 500, HasRH: true}},
		"ground":  &Static{Sample: Sample{DeciC: 100, DeciRH: 500, HasRH: true}},
	}, 0)
	r.svc.Cycle(twoSensors(), nil)
	if r.tx.sends[1].r.Humidity != 0 {
		t.Fatalf("temperature-only binding sent humidity %d", r.tx.sends[1].r.Humidity)
	}
}

func TestFailedReadSkipsFrame(t *testing.T) {
	r := newRig(map[string]Source{
		"outdoor": &Static{Err: errors.New("checksum")},
		"ground":  &Static{Sample: Sample{DeciC: 12}},
	}, 0)

	reps := r.svc.Cycle(twoSensors(), nil)

	if len(r.tx.sends) != 1 || r.tx.sends[0].id.ID != 0x22 {
		t.Fatalf("sends = %+v, want only ground", r.tx.sends)
	}
	if reps[0].Sent || reps[0].Error != string(errcode.SensorFault) {
		t.Fatalf("failed report = %+v", reps[0])
	}
	if r.rail.on {
		t.Fatal("rail left on")
	}
}

func TestMissingSourceReported(t *testing.T) {
	r := newRig(map[string]Source{"outdoor": &Static{}}, 0)
	reps := r.svc.Cycle(twoSensors(), nil)
	if reps[1].Error != string(errcode.UnknownSensor) {
		t.Fatalf("report = %+v", reps[1])
	}
}

func TestRunPublishesAndSleeps(t *testing.T) {
	r := newRig(map[string]Source{
		"outdoor": &Static{Sample: Sample{DeciC: 215, DeciRH: 450, HasRH: true}},
		"ground":  &Static{Sample: Sample{DeciC: 80}},
	}, 2)

	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	txSub := conn.Subscribe(bus.T("node", "tx", "+"))
	sleepSub := conn.Subscribe(TopicSleep)
	conn.Publish(conn.NewMessage(bus.T("config", "node"), twoSensors(), true))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.svc.Run(ctx, conn); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.sleep.inits != 1 || r.sleep.p != wdtsleep.Timeout8s {
		t.Fatalf("scheduler init %d times at %d", r.sleep.inits, r.sleep.p)
	}
	if len(r.sleep.slept) != 2 || r.sleep.slept[0] != 75 {
		t.Fatalf("slept = %v", r.sleep.slept)
	}
	if n := len(txSub.Channel()); n != 4 {
		t.Fatalf("tx reports = %d, want 4", n)
	}
	m := <-sleepSub.Channel()
	rep := m.Payload.(types.SleepReport)
	if rep.Cycle != 1 || rep.Ticks != 75 || rep.PeriodMs != 8000 {
		t.Fatalf("sleep report = %+v", rep)
	}

	// Readings are retained for late subscribers.
	late := conn.Subscribe(TopicReading("outdoor"))
	select {
	case m := <-late.Channel():
		if v := m.Payload.(types.ReadingValue); v.DeciC != 215 || v.DeciRH != 450 {
			t.Fatalf("retained reading = %+v", v)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no retained reading")
	}
}

func TestRunWaitsForConfig(t *testing.T) {
	r := newRig(nil, 1)
	conn := bus.NewBus(4).NewConnection("test")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := r.svc.Run(ctx, conn); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}
	if len(r.rail.edges) != 0 || r.sleep.inits != 0 {
		t.Fatal("node ran without a config")
	}
}

func TestPrescaleAppliedOnce(t *testing.T) {
	r := newRig(map[string]Source{"outdoor": &Static{}, "ground": &Static{}}, 0)
	var cfg types.NodeConfig
	first := twoSensors()
	second := twoSensors()
	second.Prescale = 3
	second.SleepTicks = 5

	r.svc.apply(&cfg, &bus.Message{Payload: first})
	r.svc.apply(&cfg, &bus.Message{Payload: second})
	if ok := r.svc.apply(&cfg, &bus.Message{Payload: "junk"}); ok {
		t.Fatal("non-config payload accepted")
	}
	if r.sleep.inits != 1 || cfg.Prescale != 9 || cfg.SleepTicks != 5 {
		t.Fatalf("inits=%d cfg=%+v", r.sleep.inits, cfg)
	}
}

// ---- source adapters ----

type fakeAHT struct {
	err  error
	c, h int32
}

func (f *fakeAHT) Read() error            { return f.err }
func (f *fakeAHT) DeciCelsius() int32     { return f.c }
func (f *fakeAHT) DeciRelHumidity() int32 { return f.h }

type fakeSHT struct {
	awake  bool
	sleeps int
}

func (f *fakeSHT) WakeUp() error { f.awake = true; return nil }
func (f *fakeSHT) Sleep() error  { f.awake = false; f.sleeps++; return nil }
func (f *fakeSHT) ReadTemperatureHumidity() (int32, int16, error) {
	return -12345, 10500, nil
}

type fakeDHT struct{ err error }

func (f *fakeDHT) ReadMeasurements() error { return f.err }
func (f *fakeDHT) Measurements() (int16, uint16, error) { return 231, 1200, nil }

type timeoutErr struct{}

func (timeoutErr) Error() string { return "timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestSourceAdapters(t *testing.T) {
	s, err := (&AHT20{dev: &fakeAHT{c: 215, h: 1100}}).Read()
	if err != nil || s.DeciC != 215 || s.DeciRH != 1000 || !s.HasRH {
		t.Fatalf("aht20 = %+v, %v", s, err)
	}
	if _, err := (&AHT20{dev: &fakeAHT{err: timeoutErr{}}}).Read(); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("aht20 timeout mapped to %q", errcode.Of(err))
	}

	sht := &fakeSHT{}
	s, err = (&SHTC3{dev: sht}).Read()
	if err != nil || s.DeciC != -123 || s.DeciRH != 1000 {
		t.Fatalf("shtc3 = %+v, %v", s, err)
	}
	if sht.awake || sht.sleeps != 1 {
		t.Fatal("shtc3 not put back to sleep")
	}

	s, err = NewDHT(&fakeDHT{}).Read()
	if err != nil || s.DeciC != 231 || s.DeciRH != 1000 {
		t.Fatalf("dht = %+v, %v", s, err)
	}
	if _, err := NewDHT(&fakeDHT{err: errors.New("no response")}).Read(); errcode.Of(err) != errcode.SensorFault {
		t.Fatalf("dht error mapped to %q", errcode.Of(err))
	}
}

// fakeOneWire answers skip-ROM transactions with a fixed scratchpad.
type fakeOneWire struct {
	scratch []uint8
	crc     uint8
	selects [][]uint8
	writes  []uint8
	pos     int
}

func (f *fakeOneWire) Write(b uint8) { f.writes = append(f.writes, b) }
func (f *fakeOneWire) Read() uint8 {
	if f.pos >= len(f.scratch) {
		return 0xFF
	}
	f.pos++
	return f.scratch[f.pos-1]
}
func (f *fakeOneWire) Select(romid []uint8) error {
	f.selects = append(f.selects, romid)
	f.pos = 0
	return nil
}
// The driver interface spells Crc8 with a Cyrillic capital Es.
func (f *fakeOneWire) Сrc8([]uint8) uint8 { return f.crc }

func TestDS18B20SendsTemperatureOnly(t *testing.T) {
	// -5.5 °C is 0xFFA8 in sixteenths.
	ow := &fakeOneWire{scratch: []uint8{0xA8, 0xFF, 0, 0, 0x7F, 0xFF, 0, 0x10, 0}}
	ds := NewDS18B20(ow)
	var waited []time.Duration
	ds.wait = func(d time.Duration) { waited = append(waited, d) }

	r := newRig(map[string]Source{"ground": ds}, 0)
	cfg := types.NodeConfig{
		BatteryOK: true,
		Sensors:   []types.SensorBinding{{Name: "ground", Kind: types.SensorDS18B20, ID: 0x22}},
	}
	reps := r.svc.Cycle(cfg, nil)

	if len(waited) != 1 || waited[0] != ConversionTime {
		t.Fatalf("waited %v, want one %v", waited, ConversionTime)
	}
	if len(ow.writes) != 2 || ow.writes[0] != 0x44 || ow.writes[1] != 0xBE {
		t.Fatalf("1-wire commands = % X, want 44 BE", ow.writes)
	}
	for _, rom := range ow.selects {
		if len(rom) != 0 {
			t.Fatalf("addressed rom %X, want skip ROM", rom)
		}
	}
	if len(r.tx.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(r.tx.sends))
	}
	want := sent{kw9010.Reading{Temperature: -55, Humidity: 0, BatteryOK: true}, kw9010.Identity{ID: 0x22}}
	if r.tx.sends[0] != want {
		t.Fatalf("send = %+v, want %+v", r.tx.sends[0], want)
	}
	got, id, ok := kw9010.Parse(reps[0].Frame)
	if !ok || got.Temperature != -55 || got.Humidity != 0 || id.ID != 0x22 {
		t.Fatalf("frame parses to %+v %+v ok=%v", got, id, ok)
	}
}

func TestDS18B20CRCMismatch(t *testing.T) {
	ds := NewDS18B20(&fakeOneWire{scratch: make([]uint8, 9), crc: 0x5A})
	ds.wait = func(time.Duration) {}
	if _, err := ds.Read(); errcode.Of(err) != errcode.SensorFault {
		t.Fatalf("crc error mapped to %q", errcode.Of(err))
	}
}
