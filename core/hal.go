package core

// The hardware collaborator hands the initialization phase typed handles
// with the contracts below. Clock and pin-mux setup happen before that.

// OutputPin is a digital output. All operations are non-blocking and cannot
// fail.
type OutputPin interface {
	High()
	Low()
	Toggle()
}

// PeriodicTimer is a timer counter that fires once per period.
type PeriodicTimer interface {
	// Start programs the period and starts counting.
	Start(hz uint32) error

	// EnableInterrupt lets the period match raise the timer interrupt.
	EnableInterrupt()

	// Wait returns nil and acknowledges the match if a period elapsed,
	// ErrNotReady otherwise. It never blocks.
	Wait() error
}

// SerialPort is a UART. Writes block until the byte is in the transmit
// register; reads never block.
type SerialPort interface {
	WriteByte(b byte) error

	// Write sends buf and stops at the first failed byte.
	Write(buf []byte) (int, error)

	// ReadByte returns the next received byte, or ErrNotReady.
	ReadByte() (byte, error)

	Buffered() int
}

// LevelPin is the minimal pin API TinyGo's machine.Pin provides.
type LevelPin interface {
	Set(high bool)
	Get() bool
}

// levelOutput adds Toggle on top of a LevelPin.
type levelOutput struct {
	pin LevelPin
}

// NewOutputPin adapts a LevelPin (machine.Pin on device) to OutputPin.
func NewOutputPin(p LevelPin) OutputPin {
	return levelOutput{pin: p}
}

func (o levelOutput) High()   { o.pin.Set(true) }
func (o levelOutput) Low()    { o.pin.Set(false) }
func (o levelOutput) Toggle() { o.pin.Set(!o.pin.Get()) }
