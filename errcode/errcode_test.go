package errcode

import (
	"errors"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestOf(t *testing.T) {
	wrapped := &E{C: UnknownSensor, Op: "read", Msg: "porch"}
	for _, c := range []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{Timeout, Timeout},
		{wrapped, UnknownSensor},
		{errors.New("x"), Error},
	} {
		if got := Of(c.err); got != c.want {
			t.Fatalf("Of(%v) = %q, want %q", c.err, got, c.want)
		}
	}
	if got := wrapped.Error(); got != "read: unknown_sensor: porch" {
		t.Fatalf("E.Error() = %q", got)
	}
}

func TestMapDriverErr(t *testing.T) {
	cause := errors.New("crc mismatch")
	for _, c := range []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{timeoutErr{}, Timeout},
		{cause, SensorFault},
		{&E{C: InvalidParams, Err: cause}, InvalidParams},
	} {
		if got := MapDriverErr(c.err); got != c.want {
			t.Fatalf("MapDriverErr(%v) = %q, want %q", c.err, got, c.want)
		}
	}
	if !errors.Is(&E{C: SensorFault, Err: cause}, cause) {
		t.Fatal("E does not unwrap to its cause")
	}
}
