package kw9010

// Checksum returns the 4-bit checksum over the first numBits bits of data.
//
// Bits are read most significant first within each byte and grouped into
// nibbles across byte boundaries. The first bit read of a nibble is its
// least significant bit. Nibbles are summed modulo 16 and the sum is
// mirrored (bit 0 <-> bit 3) before being returned.
//
// Only numBits == 32 is used by the protocol. A trailing partial nibble is
// discarded; numBits past the end of data is truncated to the buffer.
func Checksum(data []byte, numBits int) uint8 {
	if limit := len(data) * 8; numBits > limit {
		numBits = limit
	}
	var sum, nib uint8
	for i := 0; i < numBits; i++ {
		if data[i/8]&(0x80>>uint(i%8)) != 0 {
			nib |= 1 << uint(i%4)
		}
		if i%4 == 3 {
			sum = (sum + nib) & 0x0F
			nib = 0
		}
	}
	return reverse4(sum)
}
