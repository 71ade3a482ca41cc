package core

import "context"

// Controller is the interrupt controller the dispatcher runs on. On device
// it wraps the NVIC; on the host SoftNVIC emulates it.
//
// All methods except Post-style injection belong to the CPU context: they
// are called from task handlers, the idle loop or initialization, never from
// another goroutine.
type Controller interface {
	// Levels is the number of task priority levels; valid task priorities
	// are 1..Levels.
	Levels() Priority

	// Configure binds src to prio and to the entry point run when it fires.
	Configure(src Source, prio Priority, entry func()) error

	// Enable unmasks the interrupt line of src.
	Enable(src Source)

	// Pend marks src as pending, as the hardware does when the event fires.
	Pend(src Source)

	// Mask holds every source with priority <= p pending and returns the
	// previous threshold for Unmask. Mask never lowers the threshold.
	Mask(p Priority) Priority

	// Unmask restores a threshold returned by Mask. Pending sources above it
	// run before Unmask returns, highest priority first.
	Unmask(prev Priority)

	// Wait sleeps until the next interrupt has been served (WFI), or until
	// ctx is done.
	Wait(ctx context.Context) error
}
