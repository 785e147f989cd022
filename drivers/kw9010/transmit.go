package kw9010

// Transmit sends the first nbits of f, most significant bit of f[0]
// first, once per configured repeat with a sync pulse in front of each
// repeat. The line is driven low before the first repeat and after the
// last one, whatever the number of bits sent.
func (d *Device) Transmit(f Frame, nbits int) {
	if d.cfg.Repeats == 0 {
		d.Configure()
	}
	if limit := len(f) * 8; nbits > limit {
		nbits = limit
	}
	st := txState{}
	d.pin.Set(false)
	for r := 0; r < d.cfg.Repeats; r++ {
		d.sendSync(&st)
		for i := 0; i < nbits; i++ {
			d.sendBit(&st, f.Bit(i))
		}
	}
	d.pin.Set(false)
}

// Airtime returns the busy-wait time of one Transmit of nbits bits of f.
func (d *Device) Airtime(f Frame, nbits int) uint32 {
	c := d.Timings()
	if limit := len(f) * 8; nbits > limit {
		nbits = limit
	}
	var us uint32
	for i := 0; i < nbits; i++ {
		us += c.DummyUs
		if f.Bit(i) {
			us += c.OneUs
		} else {
			us += c.ZeroUs
		}
	}
	return uint32(c.Repeats) * (c.SyncUs + us)
}
