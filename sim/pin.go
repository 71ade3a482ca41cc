package sim

import "github.com/golang/glog"

// Pin is a virtual output pin. It records every level it was driven to.
type Pin struct {
	name    string
	high    bool
	history []bool

	// OnChange is called after every write with the new level.
	OnChange func(name string, high bool)
}

// NewPin creates a pin at the given initial level.
func NewPin(name string, high bool) *Pin {
	return &Pin{name: name, high: high}
}

func (p *Pin) High()   { p.set(true) }
func (p *Pin) Low()    { p.set(false) }
func (p *Pin) Toggle() { p.set(!p.high) }

// Set and Get make Pin usable wherever a machine.Pin is expected.
func (p *Pin) Set(high bool) { p.set(high) }
func (p *Pin) Get() bool     { return p.high }

func (p *Pin) set(high bool) {
	p.high = high
	p.history = append(p.history, high)
	if glog.V(2) {
		glog.Infof("pin %s -> %v", p.name, level(high))
	}
	if p.OnChange != nil {
		p.OnChange(p.name, high)
	}
}

func (p *Pin) Name() string { return p.name }

// Lit reports whether an active-low LED on this pin is on.
func (p *Pin) Lit() bool { return !p.high }

// History returns every level written, oldest first.
func (p *Pin) History() []bool {
	return append([]bool(nil), p.history...)
}

// Writes returns the number of writes so far.
func (p *Pin) Writes() int { return len(p.history) }

// ClearHistory forgets recorded writes.
func (p *Pin) ClearHistory() { p.history = p.history[:0] }

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
