// Package blink is the LED color-cycle sequencer driven by a periodic timer
// task.
package blink

import "rtfm/core"

// Mode is the sequencer state. The zero value is Off.
type Mode uint8

const (
	Off Mode = iota
	Blue
	Green
	Yellow
)

// Cycle is the number of timer periods after which the sequencer is back in
// its starting mode.
const Cycle = 4

func (m Mode) String() string {
	switch m {
	case Off:
		return "Off"
	case Blue:
		return "Blue"
	case Green:
		return "Green"
	case Yellow:
		return "Yellow"
	default:
		return "Mode(?)"
	}
}

// Drive is a single pin write. LEDs are wired open-drain, so Active pulls the
// pin low and Inactive releases it high.
type Drive uint8

const (
	Keep Drive = iota
	Inactive
	Active
)

// Effects lists the pin writes of one transition.
type Effects struct {
	Blue   Drive
	Green  Drive
	Yellow Drive
}

// Pins are the three indicator LEDs.
type Pins struct {
	Blue   core.OutputPin
	Green  core.OutputPin
	Yellow core.OutputPin
}

// Advance returns the successor of m and the pin writes that go with it.
// Every mode has exactly one successor; values outside the four modes are
// treated as Off.
func Advance(m Mode) (Mode, Effects) {
	switch m {
	case Blue:
		return Green, Effects{Blue: Inactive}
	case Green:
		return Yellow, Effects{Green: Active}
	case Yellow:
		return Off, Effects{Yellow: Active}
	default:
		return Blue, Effects{Green: Inactive, Blue: Active, Yellow: Inactive}
	}
}

// Apply performs the writes on p.
func (e Effects) Apply(p Pins) {
	drive(p.Green, e.Green)
	drive(p.Blue, e.Blue)
	drive(p.Yellow, e.Yellow)
}

func drive(pin core.OutputPin, d Drive) {
	switch d {
	case Active:
		pin.Low()
	case Inactive:
		pin.High()
	}
}
