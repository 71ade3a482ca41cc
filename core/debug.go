package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one dispatcher event for post-mortem analysis
type TraceEvent struct {
	Kind   uint8    // Event type code (Evt*)
	Source Source   // Interrupt source, NoSource for idle
	Level  Priority // Effective priority after the event
	Clock  uint32   // System clock at event
	Value  uint32   // Context-dependent value
}

// Event type codes
const (
	EvtTaskEnter     = 1 // handler entered; Value = invocation count
	EvtTaskExit      = 2 // handler returned
	EvtClaim         = 3 // lock scope opened; Value = resource mask
	EvtRelease       = 4 // lock scope closed; Value = resource mask
	EvtForcedRelease = 5 // scope still open when the handler returned
	EvtPend          = 6 // source pended; Value = pending mask
	EvtIdle          = 7 // idle loop woke up
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	traceRing    [TraceRingSize]TraceEvent
	traceHead    uint8
	traceCount   uint32
	traceEnabled bool = true
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, glog, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetTraceEnabled turns event capture on or off.
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the trace ring. It is safe to call from
// any priority: the ring update runs with interrupts disabled.
func RecordEvent(kind uint8, src Source, level Priority, value uint32) {
	if !traceEnabled {
		return
	}
	state := disableInterrupts()
	idx := traceHead
	traceRing[idx] = TraceEvent{
		Kind:   kind,
		Source: src,
		Level:  level,
		Clock:  GetTime(),
		Value:  value,
	}
	traceHead = (idx + 1) % TraceRingSize
	traceCount++
	restoreInterrupts(state)
}

// Trace returns the captured events, oldest first.
func Trace() []TraceEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := traceCount
	if n > TraceRingSize {
		n = TraceRingSize
	}
	out := make([]TraceEvent, 0, n)
	start := (uint32(traceHead) + TraceRingSize - n) % TraceRingSize
	for i := uint32(0); i < n; i++ {
		out = append(out, traceRing[(start+i)%TraceRingSize])
	}
	return out
}

// TraceCount returns the number of events recorded since the last clear,
// including those already overwritten.
func TraceCount() uint32 {
	return traceCount
}

// EventName returns a short label for an event kind.
func EventName(kind uint8) string {
	switch kind {
	case EvtTaskEnter:
		return "ENTER"
	case EvtTaskExit:
		return "EXIT"
	case EvtClaim:
		return "CLAIM"
	case EvtRelease:
		return "RELEASE"
	case EvtForcedRelease:
		return "FORCED_RELEASE!"
	case EvtPend:
		return "PEND"
	case EvtIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// DumpTrace writes the trace ring through the debug writer, regardless of
// SetDebugEnabled (call on shutdown/error)
func DumpTrace() {
	debugPrintln("[TRACE] === Trace Ring Dump ===")
	debugPrintln("[TRACE] Events recorded: " + utoa(traceCount))
	for _, evt := range Trace() {
		src := "idle"
		if evt.Source != NoSource {
			src = itoa(int(evt.Source))
		}
		debugPrintln("[TRACE] " + EventName(evt.Kind) +
			" src=" + src +
			" level=" + itoa(int(evt.Level)) +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTrace clears the trace ring
func ClearTrace() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceHead = 0
	traceCount = 0
}
