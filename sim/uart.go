package sim

import (
	"errors"

	"github.com/golang/glog"
)

// RxCapacity is the depth of the virtual receive FIFO.
const RxCapacity = 64

var ErrInjected = errors.New("sim: injected write fault")

// UART is a virtual SERCOM UART implementing tinygo.org/x/drivers.UART.
type UART struct {
	rx      *ring
	tx      []byte
	writes  int
	dropped int

	// Fault decides whether write number n (counting from 0) fails.
	Fault func(n int) bool

	// OnTransmit is called with every byte that made it onto the wire.
	OnTransmit func(b byte)
}

func NewUART() *UART {
	return &UART{rx: newRing(RxCapacity)}
}

// Read drains the receive FIFO.
func (u *UART) Read(p []byte) (int, error) {
	return u.rx.Read(p), nil
}

// Write sends p one byte at a time and stops at the first injected fault.
func (u *UART) Write(p []byte) (int, error) {
	for i, b := range p {
		n := u.writes
		u.writes++
		if u.Fault != nil && u.Fault(n) {
			glog.V(1).Infof("uart: write %d failed", n)
			return i, ErrInjected
		}
		u.tx = append(u.tx, b)
		if u.OnTransmit != nil {
			u.OnTransmit(b)
		}
	}
	return len(p), nil
}

func (u *UART) Buffered() int {
	return u.rx.Available()
}

// Inject places received bytes in the FIFO. Bytes that do not fit are
// dropped and counted.
func (u *UART) Inject(data ...byte) {
	n := u.rx.Write(data)
	u.dropped += len(data) - n
}

// Transmitted returns everything written so far.
func (u *UART) Transmitted() []byte {
	return append([]byte(nil), u.tx...)
}

// Writes returns the number of write attempts, failed ones included.
func (u *UART) Writes() int { return u.writes }

// Dropped returns the number of received bytes lost to a full FIFO.
func (u *UART) Dropped() int { return u.dropped }

// FailAt returns a fault function failing the given write numbers.
func FailAt(ns ...int) func(int) bool {
	return func(n int) bool {
		for _, f := range ns {
			if f == n {
				return true
			}
		}
		return false
	}
}

// FailEvery returns a fault function failing every k-th write.
func FailEvery(k int) func(int) bool {
	return func(n int) bool {
		return k > 0 && n%k == k-1
	}
}
