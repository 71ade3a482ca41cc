package sim

import (
	"errors"

	"rtfm/core"
)

var ErrZeroRate = errors.New("sim: timer rate must be positive")

// Timer is a virtual TC3. Expire plays the role of the period match; Wait
// acknowledges it.
type Timer struct {
	hz       uint32
	running  bool
	irq      bool
	expired  bool
	overruns uint32
}

func (t *Timer) Start(hz uint32) error {
	if hz == 0 {
		return ErrZeroRate
	}
	t.hz = hz
	t.running = true
	t.expired = false
	return nil
}

func (t *Timer) EnableInterrupt() { t.irq = true }

func (t *Timer) Wait() error {
	if !t.expired {
		return core.ErrNotReady
	}
	t.expired = false
	return nil
}

// Expire latches a period match. A match that arrives before the previous
// one was acknowledged is counted as an overrun.
func (t *Timer) Expire() {
	if !t.running {
		return
	}
	if t.expired {
		t.overruns++
	}
	t.expired = true
}

// Hz returns the programmed rate, 0 before Start.
func (t *Timer) Hz() uint32 { return t.hz }

// InterruptEnabled reports whether EnableInterrupt was called.
func (t *Timer) InterruptEnabled() bool { return t.irq }

func (t *Timer) Overruns() uint32 { return t.overruns }
