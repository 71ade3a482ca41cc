package firmware

import (
	"rtfm/app/blink"
	"rtfm/core"
)

// setupBlinky declares the LED sequencer: one timer task owns the timer, the
// three LEDs and the mode. The idle task reads the mode.
func (fw *Firmware) setupBlinky(a *core.App, p Peripherals, opts Options) error {
	if err := requirePins(
		namedPin{"BLUE_LED", p.LED},
		namedPin{"GREEN_LED", p.TxLED},
		namedPin{"YELLOW_LED", p.RxLED},
	); err != nil {
		return err
	}
	if err := startTimer(p.Timer, opts.TimerHz); err != nil {
		return err
	}

	prio := opts.TimerPriority
	timer := core.NewResource(a, "TIMER", prio, p.Timer)
	blue := core.NewResource(a, "BLUE_LED", prio, p.LED)
	green := core.NewResource(a, "GREEN_LED", prio, p.TxLED)
	yellow := core.NewResource(a, "YELLOW_LED", prio, p.RxLED)
	mode := core.NewResource(a, "BLINK_MODE", core.CeilingAuto, blink.Off)

	tc3 := a.Task("TC3", SourceTC3, prio)
	hTimer := core.Use(tc3, timer)
	hBlue := core.Use(tc3, blue)
	hGreen := core.Use(tc3, green)
	hYellow := core.Use(tc3, yellow)
	hMode := core.Use(tc3, mode)
	tc3.Bind(func(th *core.Threshold) {
		s, err := th.Claim(hTimer, hBlue, hGreen, hYellow, hMode)
		if err != nil {
			return
		}
		defer s.Release()

		if (*hTimer.Borrow(s)).Wait() != nil {
			return
		}
		m := hMode.Borrow(s)
		next, fx := blink.Advance(*m)
		fx.Apply(blink.Pins{
			Blue:   *hBlue.Borrow(s),
			Green:  *hGreen.Borrow(s),
			Yellow: *hYellow.Borrow(s),
		})
		*m = next
		if core.IsDebugEnabled() {
			core.DebugPrintln("[blink] " + next.String())
		}
	})

	idle := a.Idle("idle")
	hIdleMode := core.Use(idle, mode)
	idle.Bind(func(th *core.Threshold) {
		var m blink.Mode
		_ = hIdleMode.Lock(th, func(v *blink.Mode) { m = *v })
		fw.observe(Snapshot{Mode: m})
	})
	return nil
}
