package core

// Priority is an interrupt priority level. Level 0 belongs to the idle task;
// task levels start at 1 and a larger value preempts a smaller one.
type Priority uint8

// Source identifies a hardware interrupt line (an NVIC IRQ number on device).
type Source uint8

const (
	// IdlePriority is the level the idle loop runs at.
	IdlePriority Priority = 0

	// CeilingAuto asks Build to set a resource's ceiling to the highest
	// priority among the tasks that use it.
	CeilingAuto Priority = 0xFF

	// NoSource marks the idle task, which is not bound to an interrupt line.
	NoSource Source = 0xFF
)

// Static table sizes. Resource sets and pending sources are uint32 bitmasks.
const (
	MaxSources   = 32
	MaxResources = 32
	MaxNesting   = 8
)

// TaskState is the per-task dispatch state.
type TaskState uint8

const (
	TaskIdle TaskState = iota
	TaskRunning
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskRunning:
		return "running"
	default:
		return "unknown"
	}
}
