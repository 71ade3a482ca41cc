//go:build !tinygo

package core

// State is the saved interrupt state on regular Go. It records how deeply
// critical sections are nested so host tests can observe them.
type State uintptr

var irqDisableDepth uintptr

// disableInterrupts enters a critical section. There are no real interrupts
// on the host; the depth counter stands in for PRIMASK.
func disableInterrupts() State {
	prev := State(irqDisableDepth)
	irqDisableDepth++
	return prev
}

// restoreInterrupts leaves the critical section entered by disableInterrupts.
func restoreInterrupts(state State) {
	irqDisableDepth = uintptr(state)
}

// InterruptsDisabled reports whether the caller runs inside a critical section.
func InterruptsDisabled() bool {
	return irqDisableDepth > 0
}
