package serialtx

import "rtfm/core"

// RxStats are the receive-side counters.
type RxStats struct {
	Received   uint32
	Echoed     uint32
	EchoFailed uint32
	Last       byte
}

// Receiver is the receive-complete side. It toggles a liveness LED for every
// byte and optionally echoes it back. It never touches the transmit
// indicators.
type Receiver struct {
	Echo  bool
	stats RxStats
}

// Receive handles one byte that has already been read from the port.
func (r *Receiver) Receive(b byte, live core.OutputPin, w ByteWriter) {
	live.Toggle()
	r.stats.Received++
	r.stats.Last = b
	if !r.Echo || w == nil {
		return
	}
	if err := w.WriteByte(b); err != nil {
		r.stats.EchoFailed++
		return
	}
	r.stats.Echoed++
}

// Stats returns the receive counters.
func (r *Receiver) Stats() RxStats {
	return r.stats
}
