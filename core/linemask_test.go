package core

import "testing"

// lineState records which interrupt lines are switched on.
type lineState struct {
	on        uint32
	unguarded int
}

func (l *lineState) mask() *LineMask {
	return NewLineMask(
		func(src Source) {
			if !InterruptsDisabled() {
				l.unguarded++
			}
			l.on &^= uint32(1) << src
		},
		func(src Source) {
			if !InterruptsDisabled() {
				l.unguarded++
			}
			l.on |= uint32(1) << src
		},
	)
}

func (l *lineState) isOn(src Source) bool {
	return l.on&(uint32(1)<<src) != 0
}

func TestLineMaskSwitchesLinesAtOrBelowThreshold(t *testing.T) {
	var l lineState
	m := l.mask()
	m.SetPriority(5, 1)
	m.SetPriority(3, 2)
	m.SetPriority(10, 3)
	for _, src := range []Source{5, 3, 10} {
		m.Enable(src)
	}

	prev := m.Mask(2)
	if prev != 0 || m.Level() != 2 {
		t.Fatalf("Expected threshold 0 -> 2, got %d -> %d", prev, m.Level())
	}
	if l.isOn(5) || l.isOn(3) || !l.isOn(10) {
		t.Errorf("Expected only source 10 on, got %032b", l.on)
	}

	m.Unmask(prev)
	if !l.isOn(5) || !l.isOn(3) || !l.isOn(10) {
		t.Errorf("Expected every line on after unmask, got %032b", l.on)
	}
	if l.unguarded != 0 {
		t.Errorf("%d line updates ran with interrupts enabled", l.unguarded)
	}
}

func TestLineMaskPreemptedMidUpdate(t *testing.T) {
	var l lineState
	m := l.mask()
	m.SetPriority(5, 1)
	m.SetPriority(3, 2)
	m.SetPriority(10, 3)
	m.SetPriority(4, 3)
	for _, src := range []Source{3, 4, 5, 10} {
		m.Enable(src)
	}

	// A priority 3 task claims and releases a ceiling 3 cell right after
	// the first line of an outer Mask(2) was switched off.
	preempted := false
	inner := m.off
	m.off = func(src Source) {
		inner(src)
		if preempted {
			return
		}
		preempted = true
		prev := m.Mask(3)
		m.Unmask(prev)
	}

	prev := m.Mask(2)
	if prev != 0 {
		t.Errorf("Expected outer threshold 0, got %d", prev)
	}
	if l.isOn(3) || l.isOn(5) {
		t.Errorf("Lines at or below the outer ceiling re-enabled by the nested scope: %032b", l.on)
	}
	if !l.isOn(4) || !l.isOn(10) {
		t.Errorf("Lines above the outer ceiling should stay on: %032b", l.on)
	}

	m.Unmask(prev)
	if !l.isOn(3) || !l.isOn(5) {
		t.Errorf("Expected lines restored after the outer unmask: %032b", l.on)
	}
}

func TestLineMaskEnableWhileMasked(t *testing.T) {
	var l lineState
	m := l.mask()
	m.SetPriority(1, 1)
	m.SetPriority(2, 3)

	prev := m.Mask(2)
	m.Enable(1)
	m.Enable(2)
	if l.isOn(1) {
		t.Error("Line enabled under the threshold should stay off")
	}
	if !l.isOn(2) {
		t.Error("Line above the threshold should switch on")
	}

	m.Unmask(prev)
	if !l.isOn(1) {
		t.Error("Expected the held line on after unmask")
	}
}

func TestLineMaskNeverLowers(t *testing.T) {
	var l lineState
	m := l.mask()
	m.SetPriority(1, 2)
	m.Enable(1)

	outer := m.Mask(3)
	inner := m.Mask(2)
	if inner != 3 || m.Level() != 3 {
		t.Errorf("Expected Mask below the threshold to keep 3, got %d/%d", inner, m.Level())
	}
	m.Unmask(inner)
	if l.isOn(1) {
		t.Error("Inner unmask must not release the outer scope's lines")
	}
	m.Unmask(outer)
	if !l.isOn(1) {
		t.Error("Expected line on after the outer unmask")
	}
}
