package logx

import (
	"bytes"
	"errors"
	"testing"
)

func TestFormatFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	New("node").Info("frame sent",
		Uint("id", 33), Int("temp", -12), Hex("chk", 0x6, 1), Str("name", "core"))

	if got, want := buf.String(), "[node] I frame sent id=33 temp=-12 chk=6 name=core\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLevelFilterAndSink(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil); SetSink(nil); SetLevel(LevelInfo) })

	New("x").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line leaked: %q", buf.String())
	}

	var gotTag, gotMsg string
	var gotFields []Field
	SetSink(func(_ Level, tag, msg string, f []Field) {
		gotTag, gotMsg, gotFields = tag, msg, f
	})
	New("sleep").Error("read failed", Err(errors.New("boom")))
	if gotTag != "sleep" || gotMsg != "read failed" || len(gotFields) != 1 {
		t.Fatalf("sink got %q %q %v", gotTag, gotMsg, gotFields)
	}
	if v, _ := gotFields[0].Value().(string); v != "boom" {
		t.Fatalf("err field = %v", gotFields[0].Value())
	}
	if buf.Len() != 0 {
		t.Fatalf("writer used while sink installed: %q", buf.String())
	}
}
