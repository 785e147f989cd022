package kw9010

import "math/bits"

// Bit positions inside a byte count from 0 (least significant) to 7.

// bitAt reports bit n of v.
func bitAt(v uint16, n uint) bool { return (v>>n)&1 != 0 }

// setBit sets bit pos of f[idx].
func (f *Frame) setBit(idx int, pos uint) { f[idx] |= 1 << pos }

// putReversed ORs v into f[idx] mirrored: bit 0 of v lands on bit 7 of
// the byte, bit 7 on bit 0.
func (f *Frame) putReversed(idx int, v uint8) { f[idx] |= bits.Reverse8(v) }

// Bit returns transmitted bit i of the frame: bytes in order, each byte
// most significant bit first. i beyond the buffer reads as 0.
func (f *Frame) Bit(i int) bool {
	if i < 0 || i >= len(f)*8 {
		return false
	}
	return f[i/8]&(0x80>>uint(i%8)) != 0
}

// reverse8 mirrors a whole byte.
func reverse8(v uint8) uint8 { return bits.Reverse8(v) }

// reverse4 mirrors the low nibble of v (bit 0 <-> bit 3, bit 1 <-> bit 2).
func reverse4(v uint8) uint8 { return bits.Reverse8(v&0x0F) >> 4 }
