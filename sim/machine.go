// Package sim is virtual SAMD21 hardware for running the firmware on a host:
// three LEDs, the TC3 timer, the SERCOM0 UART and a software NVIC. Task code
// only ever runs on the goroutine that calls Run; the timer and receive
// sources post events to it.
package sim

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"rtfm/core"
	"rtfm/firmware"
)

// Machine is one virtual board.
type Machine struct {
	NVIC  *core.SoftNVIC
	LED   *Pin
	TxLED *Pin
	RxLED *Pin
	Timer *Timer
	UART  *UART
	Port  *core.UARTPort

	start time.Time
}

// NewMachine creates a board with an NVIC of the given priority levels. LEDs
// start released (high).
func NewMachine(levels core.Priority) *Machine {
	u := NewUART()
	return &Machine{
		NVIC:  core.NewSoftNVIC(levels),
		LED:   NewPin("D13", true),
		TxLED: NewPin("TX_LED", true),
		RxLED: NewPin("RX_LED", true),
		Timer: &Timer{},
		UART:  u,
		Port:  core.NewUARTPort(u),
		start: time.Now(),
	}
}

// Peripherals hands the board's handles to firmware.Init.
func (m *Machine) Peripherals() firmware.Peripherals {
	return firmware.Peripherals{
		LED:   m.LED,
		TxLED: m.TxLED,
		RxLED: m.RxLED,
		Timer: m.Timer,
		UART:  m.Port,
	}
}

// Init builds fw on this board.
func (m *Machine) Init(opts firmware.Options) (*firmware.Firmware, error) {
	return firmware.Init(m.NVIC, m.Peripherals(), opts)
}

// TickNow expires the timer and raises TC3 on the calling goroutine. The
// firmware must have been started.
func (m *Machine) TickNow() {
	m.Timer.Expire()
	m.NVIC.Pend(firmware.SourceTC3)
}

// ReceiveNow delivers one received byte on the calling goroutine.
func (m *Machine) ReceiveNow(b byte) {
	m.UART.Inject(b)
	m.NVIC.Pend(firmware.SourceSERCOM0)
}

// Tick posts a timer expiry from any goroutine.
func (m *Machine) Tick(ctx context.Context) error {
	return m.NVIC.Post(ctx, core.Event{
		Source: firmware.SourceTC3,
		Latch: func() {
			core.SetTime(uint32(time.Since(m.start) / time.Millisecond))
			m.Timer.Expire()
		},
	})
}

// Receive posts one byte from any goroutine.
func (m *Machine) Receive(ctx context.Context, b byte) error {
	return m.NVIC.Post(ctx, core.Event{
		Source: firmware.SourceSERCOM0,
		Latch:  func() { m.UART.Inject(b) },
	})
}

// RunOptions bound a simulation run.
type RunOptions struct {
	// Period overrides the timer period derived from the programmed rate.
	Period time.Duration
	// Ticks stops the run after that many timer periods; 0 runs until ctx
	// is done.
	Ticks int
	// Input, if set, is fed to the UART receive line byte by byte.
	Input io.Reader
}

// Run starts fw and drives it until ctx is done or the tick budget is used.
// It returns nil on a normal stop.
func (m *Machine) Run(ctx context.Context, fw *firmware.Firmware, opts RunOptions) error {
	period := opts.Period
	if period <= 0 {
		hz := m.Timer.Hz()
		if hz == 0 {
			return ErrZeroRate
		}
		period = time.Second / time.Duration(hz)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := fw.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for i := 0; opts.Ticks == 0 || i < opts.Ticks; i++ {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
			if err := m.Tick(gctx); err != nil {
				return nil
			}
		}
		// Runs after every tick above has been delivered.
		return m.NVIC.Post(gctx, core.Event{Source: core.NoSource, Latch: stop})
	})

	if opts.Input != nil {
		g.Go(func() error {
			return m.feed(gctx, opts.Input)
		})
	}

	err := g.Wait()
	glog.V(1).Infof("sim: stopped after %d invocations, max nesting %d", m.NVIC.Served(), m.NVIC.MaxNesting())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// feed copies r onto the receive line. The blocking read runs on its own
// goroutine so a stalled reader never holds up the group.
func (m *Machine) feed(ctx context.Context, r io.Reader) error {
	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					glog.Warningf("sim: input: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			for _, b := range chunk {
				if err := m.Receive(ctx, b); err != nil {
					return nil
				}
			}
		}
	}
}
