package main

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/ini.v1"

	"kw9010-node/drivers/kw9010"
	"kw9010-node/errcode"
	"kw9010-node/types"
	"kw9010-node/x/logx"
)

const sampleINI = `
sleep_ticks = 2
battery_ok = false

[outdoor]
id = 0x21
channel = 0
temperature = -3.5
humidity = 81
step = 0.5

[ground]
id = 34
channel = 1
temperature = 7.25
humidity_capable = false
`

func mustParse(t *testing.T, src string) *simConfig {
	t.Helper()
	f, err := ini.Load([]byte(src))
	if err != nil {
		t.Fatalf("ini: %v", err)
	}
	c, err := parseConfig(f, 0)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	return c
}

func TestParseConfig(t *testing.T) {
	c := mustParse(t, sampleINI)
	if c.Node.SleepTicks != 2 || c.Node.BatteryOK || len(c.Sensors) != 2 {
		t.Fatalf("node = %+v", c.Node)
	}
	out, gnd := c.Sensors[0], c.Sensors[1]
	if out.Binding != (types.SensorBinding{Name: "outdoor", Kind: types.SensorStatic, ID: 0x21, Humidity: true}) {
		t.Fatalf("outdoor binding = %+v", out.Binding)
	}
	if out.DeciC != -35 || out.DeciRH != 810 || out.StepC != 5 {
		t.Fatalf("outdoor values = %+v", out)
	}
	if gnd.Binding.ID != 34 || gnd.Binding.Channel != 1 || gnd.Binding.Humidity || gnd.DeciC != 73 {
		t.Fatalf("ground = %+v", gnd)
	}
}

func TestParseConfigRejectsBadID(t *testing.T) {
	f, _ := ini.Load([]byte("[x]\nid = banana\n"))
	if _, err := parseConfig(f, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err = %v, want invalid_params", err)
	}
}

func TestRunDecodesEveryTransmission(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zl := zap.New(core)
	logx.SetSink(zapSink(zl))
	t.Cleanup(func() { logx.SetSink(nil) })

	c := mustParse(t, sampleINI)
	c.Node.SleepTicks = 1

	res, err := run(context.Background(), zl, c, 2)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.sent != 4 || res.ok != 4 {
		t.Fatalf("sent=%d decoded=%d, want 4/4", res.sent, res.ok)
	}
	if res.railEdges != 4 {
		t.Fatalf("rail edges = %d, want 4", res.railEdges)
	}
	if len(res.reports) != 4 {
		t.Fatalf("reports = %d", len(res.reports))
	}

	// Second outdoor frame carries the stepped temperature.
	var outdoor []types.TxReport
	for _, r := range res.reports {
		if r.Sensor == "outdoor" {
			outdoor = append(outdoor, r)
		}
	}
	r, id, ok := kw9010.Parse(outdoor[1].Frame)
	if !ok || r.Temperature != -30 || r.Humidity != 81 || r.BatteryOK || id.ID != 0x21 {
		t.Fatalf("outdoor frame 2 = %+v %+v ok=%v", r, id, ok)
	}

	if n := logs.FilterMessage("frame").Len(); n != 4 {
		t.Fatalf("%d frame log lines, want 4", n)
	}
	if n := logs.FilterMessage("frame sent").FilterField(zap.String("component", "node")).Len(); n != 4 {
		t.Fatalf("%d node log lines via sink, want 4", n)
	}
}
