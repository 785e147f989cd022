// Package logx is a tagged, levelled logger for firmware code.
//
// Lines look like the println diagnostics used across the firmware:
//
//	[node] I frame sent id=33 ch=0 frame=810EB07A00
//
// Formatting avoids fmt so the same code runs on MCU builds. Hosts that
// want structured output install a Sink (see cmd/kw9010sim).
package logx

import (
	"io"
	"sync"

	"kw9010-node/x/conv"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) letter() byte {
	switch l {
	case LevelDebug:
		return 'D'
	case LevelInfo:
		return 'I'
	case LevelWarn:
		return 'W'
	default:
		return 'E'
	}
}

type fieldKind uint8

const (
	kindStr fieldKind = iota
	kindInt
	kindUint
	kindHex
)

// Field is one key/value pair attached to a log line.
type Field struct {
	Key  string
	kind fieldKind
	str  string
	num  int64
	unum uint64
	wid  int
}

func Str(k, v string) Field       { return Field{Key: k, kind: kindStr, str: v} }
func Int(k string, v int64) Field { return Field{Key: k, kind: kindInt, num: v} }
func Uint(k string, v uint64) Field {
	return Field{Key: k, kind: kindUint, unum: v}
}

// Hex renders the low `digits` nibbles of v.
func Hex(k string, v uint64, digits int) Field {
	return Field{Key: k, kind: kindHex, unum: v, wid: digits}
}

// Err renders err.Error() under "err"; nil renders "nil".
func Err(err error) Field {
	if err == nil {
		return Str("err", "nil")
	}
	return Str("err", err.Error())
}

// Value returns the field value as an int64/uint64/string for sinks.
func (f Field) Value() any {
	switch f.kind {
	case kindInt:
		return f.num
	case kindUint, kindHex:
		return f.unum
	default:
		return f.str
	}
}

// Sink receives every emitted line instead of the writer.
type Sink func(level Level, tag, msg string, fields []Field)

var (
	mu     sync.Mutex
	out    io.Writer = printWriter{}
	sink   Sink
	minLvl = LevelInfo
)

type printWriter struct{}

func (printWriter) Write(p []byte) (int, error) {
	print(string(p))
	return len(p), nil
}

// SetOutput directs formatted lines to w (e.g. a UART). nil restores print.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == nil {
		w = printWriter{}
	}
	out = w
	mu.Unlock()
}

// SetSink routes lines to s instead of the writer. nil disables it.
func SetSink(s Sink) {
	mu.Lock()
	sink = s
	mu.Unlock()
}

// SetLevel drops lines below l.
func SetLevel(l Level) {
	mu.Lock()
	minLvl = l
	mu.Unlock()
}

// Logger tags lines with a component name.
type Logger struct{ tag string }

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debug(msg string, f ...Field) { l.emit(LevelDebug, msg, f) }
func (l Logger) Info(msg string, f ...Field)  { l.emit(LevelInfo, msg, f) }
func (l Logger) Warn(msg string, f ...Field)  { l.emit(LevelWarn, msg, f) }
func (l Logger) Error(msg string, f ...Field) { l.emit(LevelError, msg, f) }

func (l Logger) emit(lvl Level, msg string, fields []Field) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < minLvl {
		return
	}
	if sink != nil {
		sink(lvl, l.tag, msg, fields)
		return
	}
	_, _ = out.Write(format(lvl, l.tag, msg, fields))
}

func format(lvl Level, tag, msg string, fields []Field) []byte {
	var num [20]byte
	b := make([]byte, 0, 64)
	b = append(b, '[')
	b = append(b, tag...)
	b = append(b, "] "...)
	b = append(b, lvl.letter(), ' ')
	b = append(b, msg...)
	for _, f := range fields {
		b = append(b, ' ')
		b = append(b, f.Key...)
		b = append(b, '=')
		switch f.kind {
		case kindInt:
			b = append(b, conv.Itoa(num[:], f.num)...)
		case kindUint:
			b = append(b, conv.Utoa(num[:], f.unum)...)
		case kindHex:
			b = append(b, conv.Hex(num[:], f.unum, f.wid)...)
		default:
			b = append(b, f.str...)
		}
	}
	return append(b, '\n')
}
