// Package serialtx holds the serial heartbeat state machines: the periodic
// transmitter and the receive-complete counter. The two share no state.
package serialtx

import (
	"errors"

	"rtfm/core"
)

// MaxMessage is the size of the fixed outbound buffer.
const MaxMessage = 64

// DefaultMessage is the greeting sent once per timer period.
const DefaultMessage = "Hello World"

var (
	ErrEmptyMessage   = errors.New("serialtx: empty message")
	ErrMessageTooLong = errors.New("serialtx: message longer than 64 bytes")
)

// ByteWriter is the blocking single-byte write of the serial port.
type ByteWriter interface {
	WriteByte(b byte) error
}

// Indicators are the transmit status LEDs, active low.
type Indicators struct {
	TxOK  core.OutputPin
	RxErr core.OutputPin
}

// Report is the outcome of one period.
type Report struct {
	Sent  int   // bytes accepted by the port
	Err   error // first write error, nil on success
	TxOK  bool
	RxErr bool
}

// Stats are the cumulative transmit counters.
type Stats struct {
	Periods uint32
	Failed  uint32
	Sent    uint32
}

// Session is the transmit side. It is owned by the timer task.
type Session struct {
	msg    [MaxMessage]byte
	n      int
	cursor int

	// TxOK and RxErr are the indicator states of the current period.
	TxOK  bool
	RxErr bool

	stats Stats
	last  Report
}

// NewSession copies msg into the session buffer.
func NewSession(msg string) (*Session, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(msg) > MaxMessage {
		return nil, ErrMessageTooLong
	}
	s := &Session{n: len(msg)}
	copy(s.msg[:], msg)
	return s, nil
}

// Message returns the outbound message.
func (s *Session) Message() []byte {
	return s.msg[:s.n]
}

// Cursor returns the index of the next byte to send in the current period.
func (s *Session) Cursor() int {
	return s.cursor
}

// Transmit writes the message from the start, one byte at a time. The first
// failed write sets RxErr and ends the period; a complete message sets TxOK.
// Failed bytes are not retried until the next period.
func (s *Session) Transmit(w ByteWriter) Report {
	s.TxOK, s.RxErr = false, false
	s.stats.Periods++

	r := Report{}
	for s.cursor = 0; s.cursor < s.n; s.cursor++ {
		if err := w.WriteByte(s.msg[s.cursor]); err != nil {
			r.Err = err
			s.RxErr = true
			s.stats.Failed++
			break
		}
		r.Sent++
	}
	s.stats.Sent += uint32(r.Sent)
	if r.Err == nil {
		s.TxOK = true
	}
	r.TxOK, r.RxErr = s.TxOK, s.RxErr
	s.last = r
	return r
}

// Indicate drives the LEDs for the indicators set this period.
func (s *Session) Indicate(leds Indicators) {
	if s.TxOK {
		leds.TxOK.Low()
	}
	if s.RxErr {
		leds.RxErr.Low()
	}
}

// EndPeriod resets both indicators to inactive, whatever the outcome.
func (s *Session) EndPeriod(leds Indicators) {
	leds.TxOK.High()
	leds.RxErr.High()
	s.TxOK, s.RxErr = false, false
	s.cursor = 0
}

// Stats returns the cumulative counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Last returns the report of the most recent period.
func (s *Session) Last() Report {
	return s.last
}
