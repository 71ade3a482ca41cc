package blink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recPin struct {
	name string
	log  *[]string
	low  bool
}

func (p *recPin) High()   { p.low = false; *p.log = append(*p.log, p.name+"=high") }
func (p *recPin) Low()    { p.low = true; *p.log = append(*p.log, p.name+"=low") }
func (p *recPin) Toggle() { p.low = !p.low; *p.log = append(*p.log, p.name+"=toggle") }

func newPins() (Pins, *recPin, *recPin, *recPin, *[]string) {
	log := &[]string{}
	blue := &recPin{name: "blue", log: log}
	green := &recPin{name: "green", log: log}
	yellow := &recPin{name: "yellow", log: log}
	return Pins{Blue: blue, Green: green, Yellow: yellow}, blue, green, yellow, log
}

func TestAdvanceCycle(t *testing.T) {
	m := Off
	var seen []Mode
	for i := 0; i < 8; i++ {
		m, _ = Advance(m)
		seen = append(seen, m)
	}
	require.Equal(t, []Mode{Blue, Green, Yellow, Off, Blue, Green, Yellow, Off}, seen)
}

func TestAdvancePeriodFour(t *testing.T) {
	for _, start := range []Mode{Off, Blue, Green, Yellow} {
		for k := 0; k < 5; k++ {
			m := start
			for i := 0; i < Cycle*k; i++ {
				m, _ = Advance(m)
			}
			require.Equal(t, start, m, "start=%s k=%d", start, k)
		}
	}
}

func TestAdvanceEffects(t *testing.T) {
	cases := []struct {
		from Mode
		want []string
	}{
		{Off, []string{"green=high", "blue=low", "yellow=high"}},
		{Blue, []string{"blue=high"}},
		{Green, []string{"green=low"}},
		{Yellow, []string{"yellow=low"}},
	}
	for _, tc := range cases {
		t.Run(tc.from.String(), func(t *testing.T) {
			pins, _, _, _, log := newPins()
			_, fx := Advance(tc.from)
			fx.Apply(pins)
			require.Equal(t, tc.want, *log)
		})
	}
}

func TestFourTimerPeriods(t *testing.T) {
	pins, blue, green, yellow, _ := newPins()

	m := Off
	var modes []Mode
	var lit [][3]bool
	for i := 0; i < 4; i++ {
		var fx Effects
		m, fx = Advance(m)
		fx.Apply(pins)
		modes = append(modes, m)
		lit = append(lit, [3]bool{blue.low, green.low, yellow.low})
	}

	require.Equal(t, []Mode{Blue, Green, Yellow, Off}, modes)
	require.Equal(t, [][3]bool{
		{true, false, false},
		{false, false, false},
		{false, true, false},
		{false, true, true},
	}, lit)
}

func TestUnknownModeRestartsCycle(t *testing.T) {
	next, fx := Advance(Mode(42))
	require.Equal(t, Blue, next)
	require.Equal(t, Active, fx.Blue)
	require.Equal(t, "Mode(?)", Mode(42).String())
}
