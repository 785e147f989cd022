package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Micros converts a microsecond count into a Duration.
func Micros(us uint32) time.Duration { return time.Duration(us) * time.Microsecond }
