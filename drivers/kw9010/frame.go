package kw9010

// Frame layout (bit 7 of byte 0 is sent first):
//
//	byte 0  identity: id[5:2] channel[1:0] id[1:0]
//	byte 1  !battery, trend(2)=0, forced=0, temperature[0:3] mirrored
//	byte 2  temperature[4:11] mirrored
//	byte 3  (humidity+156) mirrored
//	byte 4  checksum in the high nibble
const (
	FrameBits    = 36
	ChecksumBits = 32
	FrameBytes   = 5

	negativeBias = 4096
	humidityBias = 156
)

// Frame is the packed transmission buffer. Only the first FrameBits bits
// are sent.
type Frame [FrameBytes]byte

// Identity is the per-device address. Only the low 6 bits of ID and the
// low 2 bits of Channel are significant.
type Identity struct {
	ID      uint8
	Channel uint8
}

// Reading is one sample as the base station expects it.
type Reading struct {
	// Temperature in tenths of °C.
	Temperature int16
	// Humidity is added to the protocol bias and truncated to 8 bits. The
	// base station reads it back as whole percent.
	Humidity  uint16
	BatteryOK bool
}

// Byte returns the interleaved identity byte.
func (id Identity) Byte() uint8 {
	return (id.ID&0x3C)<<2 | (id.Channel&0x03)<<2 | id.ID&0x03
}

// IdentityFromByte inverts Identity.Byte.
func IdentityFromByte(b uint8) Identity {
	return Identity{
		ID:      (b>>2)&0x3C | b&0x03,
		Channel: (b >> 2) & 0x03,
	}
}

// Build packs a reading into a frame and appends its checksum.
func Build(r Reading, id Identity) Frame {
	var f Frame
	f[0] = id.Byte()

	if !r.BatteryOK {
		f.setBit(1, 7)
	}
	// Bits 6..4 (trend, forced send) stay clear.

	t := r.Temperature
	if t < 0 {
		t += negativeBias
	}
	tu := uint16(t)
	for i := uint(0); i < 4; i++ {
		if bitAt(tu, i) {
			f.setBit(1, 3-i)
		}
	}
	f.putReversed(2, uint8(tu>>4))

	f.putReversed(3, uint8(r.Humidity+humidityBias))

	f[4] = Checksum(f[:], ChecksumBits) << 4
	return f
}

// Parse reads a frame back into its fields and reports whether the
// checksum matches. Temperatures of 2048 and above read back negative.
func Parse(f Frame) (Reading, Identity, bool) {
	tLow := reverse4(f[1])
	tHigh := reverse8(f[2])
	t := int16(uint16(tHigh)<<4 | uint16(tLow))
	if t >= negativeBias/2 {
		t -= negativeBias
	}
	r := Reading{
		Temperature: t,
		Humidity:    uint16(uint8(reverse8(f[3]) - humidityBias)),
		BatteryOK:   f[1]&0x80 == 0,
	}
	ok := f[4]>>4 == Checksum(f[:], ChecksumBits)
	return r, IdentityFromByte(f[0]), ok
}
