package core

import (
	"context"
	"math/bits"
)

// Event is a hardware event raised from outside the CPU context. Latch runs
// on the CPU context right before the source is pended; peripherals use it
// to set their status flags (timer expired, byte received).
type Event struct {
	Source Source
	Latch  func()
}

// SoftNVIC emulates a nested vectored interrupt controller on one CPU
// context. A source runs when it is pending, enabled and its priority is
// above both the running priority and the mask threshold; a pend issued from
// inside a handler preempts it immediately when the new source is more
// urgent. Ties go to the lower source number.
//
// Only Post may be called from other goroutines.
type SoftNVIC struct {
	levels Priority
	prio   [MaxSources]Priority
	entry  [MaxSources]func()

	configured uint32
	enabled    uint32
	pending    uint32

	active  Priority
	mask    Priority
	nesting int
	maxNest int
	served  uint32
	events  chan Event
}

// NewSoftNVIC creates a controller with the given number of priority levels.
func NewSoftNVIC(levels Priority) *SoftNVIC {
	return &SoftNVIC{
		levels: levels,
		events: make(chan Event, 64),
	}
}

func (n *SoftNVIC) Levels() Priority {
	return n.levels
}

func (n *SoftNVIC) Configure(src Source, prio Priority, entry func()) error {
	if src >= MaxSources {
		return ErrSourceRange
	}
	if prio == IdlePriority || prio > n.levels {
		return ErrPriorityRange
	}
	n.prio[src] = prio
	n.entry[src] = entry
	n.configured |= uint32(1) << src
	return nil
}

func (n *SoftNVIC) Enable(src Source) {
	if src >= MaxSources {
		return
	}
	n.enabled |= uint32(1) << src
	n.serve()
}

// Disable masks the interrupt line of src. Pending state is kept.
func (n *SoftNVIC) Disable(src Source) {
	if src >= MaxSources {
		return
	}
	n.enabled &^= uint32(1) << src
}

func (n *SoftNVIC) Pend(src Source) {
	if src >= MaxSources {
		return
	}
	n.pending |= uint32(1) << src
	RecordEvent(EvtPend, src, n.level(), n.pending)
	n.serve()
}

func (n *SoftNVIC) Mask(p Priority) Priority {
	prev := n.mask
	if p > n.mask {
		n.mask = p
	}
	return prev
}

func (n *SoftNVIC) Unmask(prev Priority) {
	n.mask = prev
	n.serve()
}

// Wait blocks until at least one posted event arrived, delivers every event
// queued so far and returns once their tasks have run.
func (n *SoftNVIC) Wait(ctx context.Context) error {
	select {
	case ev := <-n.events:
		n.deliver(ev)
	case <-ctx.Done():
		return ctx.Err()
	}
	for {
		select {
		case ev := <-n.events:
			n.deliver(ev)
		default:
			return nil
		}
	}
}

// Post queues a hardware event for the CPU context. It is safe to call from
// any goroutine.
func (n *SoftNVIC) Post(ctx context.Context, ev Event) error {
	select {
	case n.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether src is waiting to run.
func (n *SoftNVIC) Pending(src Source) bool {
	return src < MaxSources && n.pending&(uint32(1)<<src) != 0
}

// Active returns the priority of the running context.
func (n *SoftNVIC) Active() Priority {
	return n.active
}

// MaxNesting returns the deepest preemption observed.
func (n *SoftNVIC) MaxNesting() int {
	return n.maxNest
}

// Served returns how many handler invocations the controller made.
func (n *SoftNVIC) Served() uint32 {
	return n.served
}

func (n *SoftNVIC) deliver(ev Event) {
	if ev.Latch != nil {
		ev.Latch()
	}
	n.Pend(ev.Source)
}

func (n *SoftNVIC) level() Priority {
	if n.mask > n.active {
		return n.mask
	}
	return n.active
}

// next picks the most urgent runnable source.
func (n *SoftNVIC) next() (Source, bool) {
	level := n.level()
	ready := n.pending & n.enabled & n.configured
	best := -1
	for ready != 0 {
		i := bits.TrailingZeros32(ready)
		ready &^= uint32(1) << i
		if n.prio[i] > level && (best < 0 || n.prio[i] > n.prio[best]) {
			best = i
		}
	}
	return Source(best), best >= 0
}

func (n *SoftNVIC) serve() {
	for {
		src, ok := n.next()
		if !ok {
			return
		}
		n.pending &^= uint32(1) << src
		saved := n.active
		n.active = n.prio[src]
		n.nesting++
		if n.nesting > n.maxNest {
			n.maxNest = n.nesting
		}
		n.served++
		n.entry[src]()
		n.nesting--
		n.active = saved
	}
}
