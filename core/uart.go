package core

import "tinygo.org/x/drivers"

// UARTPort adapts a tinygo.org/x/drivers UART (machine.UART on device) to
// SerialPort.
type UARTPort struct {
	uart drivers.UART
	one  [1]byte
}

// NewUARTPort wraps u.
func NewUARTPort(u drivers.UART) *UARTPort {
	return &UARTPort{uart: u}
}

func (p *UARTPort) WriteByte(b byte) error {
	p.one[0] = b
	n, err := p.uart.Write(p.one[:])
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrShortWrite
	}
	return nil
}

func (p *UARTPort) Write(buf []byte) (int, error) {
	for i, b := range buf {
		if err := p.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

func (p *UARTPort) ReadByte() (byte, error) {
	if p.uart.Buffered() == 0 {
		return 0, ErrNotReady
	}
	n, err := p.uart.Read(p.one[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotReady
	}
	return p.one[0], nil
}

func (p *UARTPort) Buffered() int {
	return p.uart.Buffered()
}
