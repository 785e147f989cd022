// Package conv formats integers into caller buffers without fmt or strconv.
package conv

// Itoa writes base-10 n into the tail of buf and returns the used slice.
// A 20-byte buffer fits any int64.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	out := Utoa(buf, uint64(-n))
	i := len(buf) - len(out)
	if i == 0 {
		return out
	}
	buf[i-1] = '-'
	return buf[i-1:]
}

// Utoa writes base-10 n into the tail of buf and returns the used slice.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	if n == 0 {
		buf[i-1] = '0'
		return buf[i-1:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

const hexDigits = "0123456789ABCDEF"

// Hex writes the low `digits` nibbles of n as zero-padded uppercase hex.
// digits is capped at len(buf) and 16.
func Hex(buf []byte, n uint64, digits int) []byte {
	if digits > 16 {
		digits = 16
	}
	if digits > len(buf) {
		digits = len(buf)
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexDigits[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// AppendHexBytes appends each byte of p as two hex digits.
func AppendHexBytes(dst, p []byte) []byte {
	for _, b := range p {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0xF])
	}
	return dst
}
