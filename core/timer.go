package core

import "sync/atomic"

var systemTicks atomic.Uint32

// GetTime returns the current system time in timer ticks. The clock only
// timestamps trace events; the dispatcher never reads it.
func GetTime() uint32 {
	return systemTicks.Load()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	systemTicks.Store(ticks)
}

// PeriodTicks converts a rate in Hz into a count of clockHz ticks, rounded
// to nearest. It returns 0 for a zero rate.
func PeriodTicks(clockHz, hz uint32) uint32 {
	if hz == 0 {
		return 0
	}
	return uint32((uint64(clockHz) + uint64(hz)/2) / uint64(hz))
}
