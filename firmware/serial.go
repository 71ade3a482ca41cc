package firmware

import (
	"rtfm/app/serialtx"
	"rtfm/core"
)

// setupSerial declares the serial heartbeat. The timer task sends the
// greeting each period and drives the TX/RX LEDs; the SERCOM0 task reads
// received bytes, toggles the board LED and optionally echoes. The UART is
// shared, so its ceiling covers both tasks.
func (fw *Firmware) setupSerial(a *core.App, p Peripherals, opts Options) error {
	if err := requirePins(
		namedPin{"BLUE_LED", p.LED},
		namedPin{"TX_LED", p.TxLED},
		namedPin{"RX_LED", p.RxLED},
	); err != nil {
		return err
	}
	if p.UART == nil {
		return &core.ConfigError{Resource: "UART", Err: ErrMissingPeripheral}
	}
	if opts.Baud == 0 {
		return &core.ConfigError{Resource: "UART", Err: ErrBaudRate}
	}
	session, err := serialtx.NewSession(opts.Message)
	if err != nil {
		return &core.ConfigError{Resource: "SESSION", Err: err}
	}

	p.LED.Low()
	p.TxLED.Low()
	p.RxLED.Low()
	if err := startTimer(p.Timer, opts.TimerHz); err != nil {
		return err
	}

	tp, sp := opts.TimerPriority, opts.SerialPriority
	timer := core.NewResource(a, "TIMER", tp, p.Timer)
	uart := core.NewResource(a, "UART", core.CeilingAuto, p.UART)
	txLED := core.NewResource(a, "TX_LED", tp, p.TxLED)
	rxLED := core.NewResource(a, "RX_LED", tp, p.RxLED)
	blue := core.NewResource(a, "BLUE_LED", sp, p.LED)
	sess := core.NewResource(a, "SESSION", core.CeilingAuto, *session)
	recv := core.NewResource(a, "RECEIVER", core.CeilingAuto, serialtx.Receiver{Echo: opts.Echo})

	tc3 := a.Task("TC3", SourceTC3, tp)
	hTimer := core.Use(tc3, timer)
	hTxUART := core.Use(tc3, uart)
	hTxLED := core.Use(tc3, txLED)
	hRxLED := core.Use(tc3, rxLED)
	hSess := core.Use(tc3, sess)
	tc3.Bind(func(th *core.Threshold) {
		s, err := th.Claim(hTimer, hTxUART, hTxLED, hRxLED, hSess)
		if err != nil {
			return
		}
		defer s.Release()

		if (*hTimer.Borrow(s)).Wait() != nil {
			return
		}
		session := hSess.Borrow(s)
		leds := serialtx.Indicators{TxOK: *hTxLED.Borrow(s), RxErr: *hRxLED.Borrow(s)}
		session.Transmit(*hTxUART.Borrow(s))
		session.Indicate(leds)
		session.EndPeriod(leds)
	})

	sercom := a.Task("SERCOM0", SourceSERCOM0, sp)
	hRxUART := core.Use(sercom, uart)
	hBlue := core.Use(sercom, blue)
	hRecv := core.Use(sercom, recv)
	sercom.Bind(func(th *core.Threshold) {
		s, err := th.Claim(hRxUART, hBlue, hRecv)
		if err != nil {
			return
		}
		defer s.Release()

		port := *hRxUART.Borrow(s)
		b, err := port.ReadByte()
		if err != nil {
			return
		}
		hRecv.Borrow(s).Receive(b, *hBlue.Borrow(s), port)
	})

	idle := a.Idle("idle")
	hIdleSess := core.Use(idle, sess)
	hIdleRecv := core.Use(idle, recv)
	idle.Bind(func(th *core.Threshold) {
		var snap Snapshot
		s, err := th.Claim(hIdleSess, hIdleRecv)
		if err != nil {
			return
		}
		session := hIdleSess.Borrow(s)
		snap.Tx = session.Stats()
		snap.LastTx = session.Last()
		snap.Rx = hIdleRecv.Borrow(s).Stats()
		s.Release()
		fw.observe(snap)
	})
	return nil
}
