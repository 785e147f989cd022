package main

import (
	"errors"

	"go.uber.org/zap"

	"kw9010-node/drivers/kw9010"
	"kw9010-node/internal/platform"
)

// tap sends through a real kw9010.Device wired to a TracePin and decodes
// the recorded pulse train right after each transmission, playing the
// base station.
type tap struct {
	*kw9010.Device
	trace *platform.TracePin
	dec   kw9010.Decoder
	log   *zap.Logger
	names map[kw9010.Identity]string

	sent, ok int
}

func newTap(log *zap.Logger, names map[kw9010.Identity]string) *tap {
	tr := &platform.TracePin{}
	dev := kw9010.New(tr, tr.Delay)
	dev.Configure()
	return &tap{
		Device: dev,
		trace:  tr,
		dec:    kw9010.NewDecoder(dev.Timings()),
		log:    log,
		names:  names,
	}
}

func (t *tap) Send(r kw9010.Reading, id kw9010.Identity) kw9010.Frame {
	f := t.Device.Send(r, id)
	name := t.names[id]
	t.sent++
	framesSent.WithLabelValues(name).Inc()
	airtime.Add(float64(t.Airtime(f, kw9010.FrameBits)) / 1e6)

	if err := t.check(name, f, t.trace.Take()); err != nil {
		decodeErrors.WithLabelValues(name, reason(err)).Inc()
		t.log.Warn("decode failed", zap.String("sensor", name), zap.Error(err))
	}
	return f
}

var errMismatch = errors.New("decoded frame differs from sent frame")

func (t *tap) check(name string, sent kw9010.Frame, pulses []kw9010.Pulse) error {
	frames, err := t.dec.Decode(pulses)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if f != sent {
			return errMismatch
		}
	}
	framesDecoded.WithLabelValues(name).Add(float64(len(frames)))
	t.ok++

	r, id, _ := kw9010.Parse(frames[0])
	temperature.WithLabelValues(name).Set(float64(r.Temperature) / 10)
	humidity.WithLabelValues(name).Set(float64(r.Humidity))
	t.log.Info("frame",
		zap.String("sensor", name),
		zap.Binary("bytes", sent[:]),
		zap.Uint8("id", id.ID),
		zap.Uint8("channel", id.Channel),
		zap.Float64("temperature", float64(r.Temperature)/10),
		zap.Uint16("humidity", r.Humidity),
		zap.Bool("battery_ok", r.BatteryOK),
		zap.Int("repeats", len(frames)),
	)
	return nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, kw9010.ErrNoSync):
		return "no_sync"
	case errors.Is(err, kw9010.ErrShortFrame):
		return "short_frame"
	case errors.Is(err, kw9010.ErrChecksum):
		return "checksum"
	default:
		return "mismatch"
	}
}
