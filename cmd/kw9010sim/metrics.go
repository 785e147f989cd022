package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kw9010_frames_sent_total",
		Help: "Frames handed to the transmitter",
	},
		[]string{"sensor"})
	framesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kw9010_frames_decoded_total",
		Help: "Repeats decoded from the emitted pulse train",
	},
		[]string{"sensor"})
	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kw9010_decode_errors_total",
		Help: "Transmissions that did not decode to the sent frame",
	},
		[]string{"sensor", "reason"})
	readErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kw9010_read_errors_total",
		Help: "Sensor reads that failed",
	},
		[]string{"sensor", "code"})
	airtime = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kw9010_airtime_seconds_total",
		Help: "Time spent transmitting",
	})
	temperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kw9010_temperature_celsius",
		Help: "Temperature decoded from the last frame",
	},
		[]string{"sensor"})
	humidity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kw9010_humidity_percent",
		Help: "Humidity decoded from the last frame",
	},
		[]string{"sensor"})
)
