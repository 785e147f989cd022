package platform

// RailPin is a pin the rail can drive or release.
type RailPin interface {
	Set(level bool) // drive as an output
	Float()         // release to a high-impedance input
}

// Rail switches the sensor supply. With the rail off, the transmitter
// and sensor data pins are floated so nothing back-powers the sensors
// through them. Rail on drives the transmitter pin low again; data pins
// stay released for their drivers to claim.
type Rail struct {
	vcc  RailPin
	tx   RailPin
	data []RailPin
}

func NewRail(vcc, tx RailPin, data ...RailPin) *Rail {
	r := &Rail{vcc: vcc, tx: tx, data: data}
	r.Set(false)
	return r
}

func (r *Rail) Set(on bool) {
	if on {
		r.tx.Set(false)
		r.vcc.Set(true)
		return
	}
	r.vcc.Float()
	r.tx.Float()
	for _, p := range r.data {
		p.Float()
	}
}
