package kw9010

// txState tracks the logical level of the data line between symbols. It
// belongs to one Transmit call and is never shared.
type txState struct {
	high bool
}

// sendSync flips the line and holds it for the sync time. It is the only
// symbol that changes the tracked level.
func (d *Device) sendSync(st *txState) {
	d.pin.Set(!st.high)
	d.delay(d.cfg.SyncUs)
	st.high = !st.high
}

// sendBit emits a short pulse of the opposite level, then returns to the
// starting level for the zero or one time. The line ends where it began.
func (d *Device) sendBit(st *txState, one bool) {
	d.pin.Set(!st.high)
	d.delay(d.cfg.DummyUs)
	d.pin.Set(st.high)
	if one {
		d.delay(d.cfg.OneUs)
	} else {
		d.delay(d.cfg.ZeroUs)
	}
}
