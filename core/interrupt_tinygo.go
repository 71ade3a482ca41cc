//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved PRIMASK state.
type State = interrupt.State

// disableInterrupts masks every interrupt and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}

// InterruptsDisabled reports whether the caller runs inside a critical section.
func InterruptsDisabled() bool {
	state := interrupt.Disable()
	interrupt.Restore(state)
	return state != 0
}
