package platform

import (
	"sync"

	"kw9010-node/x/mathx"
)

// AHT20Emu answers I²C reads the way an idle, calibrated AHT20 does,
// reporting a fixed temperature and humidity. Writes (commands) are
// accepted and counted.
type AHT20Emu struct {
	mu     sync.Mutex
	deciC  int32
	deciRH int32
	writes int
}

const aht20StatusCalibrated = 0x18

func NewAHT20Emu(deciC, deciRH int32) *AHT20Emu {
	return &AHT20Emu{deciC: deciC, deciRH: deciRH}
}

// Set changes the reported values.
func (e *AHT20Emu) Set(deciC, deciRH int32) {
	e.mu.Lock()
	e.deciC, e.deciRH = deciC, deciRH
	e.mu.Unlock()
}

func (e *AHT20Emu) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

// Tx implements drivers.I2C.
func (e *AHT20Emu) Tx(_ uint16, w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(w) > 0 {
		e.writes++
	}
	if len(r) == 0 {
		return nil
	}
	m := e.measurement()
	n := copy(r, m[:])
	for i := n; i < len(r); i++ {
		r[i] = 0
	}
	return nil
}

// measurement packs status, 20-bit humidity and 20-bit temperature.
// RH = raw/2^20 * 100 %, T = raw/2^20 * 200 - 50 °C.
func (e *AHT20Emu) measurement() [7]byte {
	hum := uint32(mathx.Clamp((int64(e.deciRH)<<20)/1000, 0, 0xFFFFF))
	tmp := uint32(mathx.Clamp((int64(e.deciC+500)<<20)/2000, 0, 0xFFFFF))
	return [7]byte{
		aht20StatusCalibrated,
		byte(hum >> 12),
		byte(hum >> 4),
		byte(hum<<4) | byte(tmp>>16),
		byte(tmp >> 8),
		byte(tmp),
		0, // CRC unused by the driver
	}
}
