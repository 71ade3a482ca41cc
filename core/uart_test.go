package core

import (
	"errors"
	"testing"
)

// fakeUART implements drivers.UART.
type fakeUART struct {
	rx      []byte
	tx      []byte
	failAt  int
	writes  int
	zeroOut bool
}

func (u *fakeUART) Read(p []byte) (int, error) {
	n := copy(p, u.rx)
	u.rx = u.rx[n:]
	return n, nil
}

func (u *fakeUART) Write(p []byte) (int, error) {
	u.writes++
	if u.failAt > 0 && u.writes == u.failAt {
		return 0, errors.New("framing error")
	}
	if u.zeroOut {
		return 0, nil
	}
	u.tx = append(u.tx, p...)
	return len(p), nil
}

func (u *fakeUART) Buffered() int {
	return len(u.rx)
}

func TestUARTPortWrite(t *testing.T) {
	u := &fakeUART{}
	port := NewUARTPort(u)

	n, err := port.Write([]byte("Hello"))
	if err != nil || n != 5 {
		t.Fatalf("Expected 5 bytes written, got %d, %v", n, err)
	}
	if string(u.tx) != "Hello" {
		t.Errorf("Expected Hello on the wire, got %q", u.tx)
	}
}

func TestUARTPortWriteStopsAtFirstFailure(t *testing.T) {
	u := &fakeUART{failAt: 3}
	port := NewUARTPort(u)

	n, err := port.Write([]byte("Hello"))
	if err == nil {
		t.Fatal("Expected an error")
	}
	if n != 2 || string(u.tx) != "He" {
		t.Errorf("Expected to stop after 2 bytes, got %d (%q)", n, u.tx)
	}
}

func TestUARTPortShortWrite(t *testing.T) {
	port := NewUARTPort(&fakeUART{zeroOut: true})
	if err := port.WriteByte('x'); !errors.Is(err, ErrShortWrite) {
		t.Errorf("Expected ErrShortWrite, got %v", err)
	}
}

func TestUARTPortReadByte(t *testing.T) {
	port := NewUARTPort(&fakeUART{rx: []byte{'a'}})

	if port.Buffered() != 1 {
		t.Errorf("Expected 1 buffered byte, got %d", port.Buffered())
	}
	b, err := port.ReadByte()
	if err != nil || b != 'a' {
		t.Errorf("Expected 'a', got %q, %v", b, err)
	}
	if _, err := port.ReadByte(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady on empty port, got %v", err)
	}
}

type fakeLevelPin struct{ high bool }

func (p *fakeLevelPin) Set(high bool) { p.high = high }
func (p *fakeLevelPin) Get() bool     { return p.high }

func TestOutputPinToggle(t *testing.T) {
	raw := &fakeLevelPin{}
	pin := NewOutputPin(raw)

	pin.High()
	if !raw.high {
		t.Error("Expected pin high")
	}
	pin.Toggle()
	if raw.high {
		t.Error("Expected pin low after toggle")
	}
	pin.Toggle()
	pin.Low()
	if raw.high {
		t.Error("Expected pin low")
	}
}
