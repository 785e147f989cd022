package kw9010

import "errors"

var (
	ErrNoSync     = errors.New("kw9010: no sync pulse")
	ErrShortFrame = errors.New("kw9010: frame truncated")
	ErrChecksum   = errors.New("kw9010: checksum mismatch")
)

// Pulse is one stretch of constant line level.
type Pulse struct {
	High bool
	Us   uint32
}

// Decoder classifies pulse widths against midpoints of the protocol
// timings.
type Decoder struct {
	syncMin uint32 // anything at least this long is a sync
	oneMin  uint32 // data gap at least this long is a 1
}

// NewDecoder derives thresholds from c; zero fields take the defaults.
func NewDecoder(c Config) Decoder {
	if c.SyncUs == 0 {
		c.SyncUs = TimeSync
	}
	if c.ZeroUs == 0 {
		c.ZeroUs = TimeZero
	}
	if c.OneUs == 0 {
		c.OneUs = TimeOne
	}
	return Decoder{
		syncMin: (c.SyncUs + c.OneUs) / 2,
		oneMin:  (c.ZeroUs + c.OneUs) / 2,
	}
}

// Decode extracts every complete frame from a pulse train. The level of a
// pulse is ignored; only widths carry information. Frames that fail the
// checksum are skipped and reported through the returned error when no
// valid frame was found.
func (dc Decoder) Decode(pulses []Pulse) ([]Frame, error) {
	var (
		out     []Frame
		lastErr = ErrNoSync
	)
	for i := 0; i < len(pulses); i++ {
		if pulses[i].Us < dc.syncMin {
			continue
		}
		f, next, err := dc.readFrame(pulses, i+1)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, f)
		i = next - 1
	}
	if len(out) == 0 {
		return nil, lastErr
	}
	return out, nil
}

// readFrame consumes FrameBits (dummy, gap) pairs starting at pulses[i].
func (dc Decoder) readFrame(pulses []Pulse, i int) (Frame, int, error) {
	var f Frame
	for n := 0; n < FrameBits; n++ {
		if i+1 >= len(pulses) {
			return Frame{}, i, ErrShortFrame
		}
		gap := pulses[i+1].Us
		if pulses[i].Us >= dc.syncMin || gap >= dc.syncMin {
			return Frame{}, i, ErrShortFrame
		}
		if gap >= dc.oneMin {
			f[n/8] |= 0x80 >> uint(n%8)
		}
		i += 2
	}
	if f[4]>>4 != Checksum(f[:], ChecksumBits) {
		return Frame{}, i, ErrChecksum
	}
	return f, i, nil
}
