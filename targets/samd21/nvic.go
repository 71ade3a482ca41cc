//go:build tinygo && atsamd21

package main

import (
	"context"
	"device/arm"

	"rtfm/core"
)

// SAMD21 is a Cortex-M0+: two priority bits and no BASEPRI. Mask therefore
// goes through core.LineMask, which switches off the lines of every task at
// or below the ceiling inside a critical section.
const nvicLevels core.Priority = 4

// rxSource reports whether the receive task has work. machine.UART owns the
// SERCOM0 vector, so the receive task is dispatched from a spare line that
// the idle loop pends while bytes are buffered.
type rxSource interface {
	Buffered() int
}

type nvic struct {
	irq   [core.MaxSources]uint32
	entry [core.MaxSources]func()
	lines *core.LineMask

	rx    rxSource
	rxSrc core.Source
}

func newNVIC() *nvic {
	c := &nvic{}
	for i := range c.irq {
		c.irq[i] = uint32(i)
	}
	c.lines = core.NewLineMask(
		func(src core.Source) { arm.DisableIRQ(c.irq[src]) },
		func(src core.Source) { arm.EnableIRQ(c.irq[src]) },
	)
	return c
}

// route dispatches src on a different hardware line.
func (c *nvic) route(src core.Source, irq uint32) {
	c.irq[src] = irq
}

// watch pends src from the idle loop whenever rx has buffered bytes.
func (c *nvic) watch(rx rxSource, src core.Source) {
	c.rx = rx
	c.rxSrc = src
}

func (c *nvic) Levels() core.Priority {
	return nvicLevels
}

func (c *nvic) Configure(src core.Source, prio core.Priority, entry func()) error {
	if src >= core.MaxSources {
		return core.ErrSourceRange
	}
	if prio == core.IdlePriority || prio > nvicLevels {
		return core.ErrPriorityRange
	}
	c.lines.SetPriority(src, prio)
	c.entry[src] = entry
	// Hardware priority 0 is the most urgent; the two implemented bits are
	// the top of the byte.
	arm.SetPriority(c.irq[src], uint32(nvicLevels-prio)<<6)
	return nil
}

func (c *nvic) Enable(src core.Source) {
	c.lines.Enable(src)
}

func (c *nvic) Pend(src core.Source) {
	irq := c.irq[src]
	arm.NVIC.ISPR[irq>>5].Set(1 << (irq & 31))
}

func (c *nvic) Mask(p core.Priority) core.Priority {
	return c.lines.Mask(p)
}

func (c *nvic) Unmask(prev core.Priority) {
	c.lines.Unmask(prev)
}

// Wait sleeps until the next interrupt. Buffered receive data is turned into
// a pend before and after sleeping so a byte that raced the WFI is not left
// waiting for the next timer period.
func (c *nvic) Wait(ctx context.Context) error {
	if c.pendRx() {
		return nil
	}
	arm.Asm("wfi")
	c.pendRx()
	return nil
}

func (c *nvic) pendRx() bool {
	if c.rx == nil || c.rx.Buffered() == 0 {
		return false
	}
	c.Pend(c.rxSrc)
	return true
}

func (c *nvic) dispatch(src core.Source) {
	if e := c.entry[src]; e != nil {
		e()
	}
}
