package core

// LineMask emulates a priority threshold on controllers without BASEPRI
// (Cortex-M0+) by switching individual interrupt lines off and on. Pending
// bits survive while a line is off, so the hardware serves those sources in
// its own order once they are switched back on.
//
// Every update runs with interrupts disabled: a task preempting a Mask or
// Unmask halfway through would otherwise read a stale level and re-enable
// lines the interrupted scope still needs off.
type LineMask struct {
	prio    [MaxSources]Priority
	enabled uint32
	level   Priority

	off func(src Source)
	on  func(src Source)
}

// NewLineMask creates a mask that drives lines through off and on.
func NewLineMask(off, on func(src Source)) *LineMask {
	return &LineMask{off: off, on: on}
}

// SetPriority records the priority of src.
func (m *LineMask) SetPriority(src Source, prio Priority) {
	if src < MaxSources {
		m.prio[src] = prio
	}
}

// Enable marks src enabled and switches its line on unless the current
// level holds it off.
func (m *LineMask) Enable(src Source) {
	if src >= MaxSources {
		return
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	m.enabled |= uint32(1) << src
	if m.prio[src] > m.level {
		m.on(src)
	}
}

// Level returns the current threshold.
func (m *LineMask) Level() Priority {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return m.level
}

// Mask switches off every enabled line with priority <= p and returns the
// previous threshold. It never lowers the threshold.
func (m *LineMask) Mask(p Priority) Priority {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	prev := m.level
	if p <= prev {
		return prev
	}
	m.level = p
	m.each(prev, p, m.off)
	return prev
}

// Unmask restores a threshold returned by Mask. Lines switched back on fire
// as soon as interrupts are restored, before Unmask returns.
func (m *LineMask) Unmask(prev Priority) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	cur := m.level
	m.level = prev
	if prev < cur {
		m.each(prev, cur, m.on)
	}
}

// each calls fn for the enabled sources with priority in (lo, hi].
func (m *LineMask) each(lo, hi Priority, fn func(src Source)) {
	for src := Source(0); src < MaxSources; src++ {
		if m.enabled&(uint32(1)<<src) != 0 && m.prio[src] > lo && m.prio[src] <= hi {
			fn(src)
		}
	}
}
