//go:build tinygo && atsamd21

package main

import (
	"errors"
	"runtime/volatile"
	"unsafe"

	"rtfm/core"
)

// TC3 in 16-bit match-frequency mode, clocked from GCLK0 (48 MHz) through
// the /1024 prescaler.
const (
	tc3Base   = 0x42002C00
	tc3Clock  = 48000000 / 1024
	pmBase    = 0x40000400
	gclkBase  = 0x40000C00
	gclkTC3ID = 0x1B // GCLK_TCC2_TC3

	tcCtrlaEnable    = 1 << 1
	tcCtrlaWavegenMF = 1 << 5
	tcCtrlaDiv1024   = 7 << 8
	tcIntMC0         = 1 << 4
	tcSyncBusy       = 1 << 7
	pmAPBCTC3        = 1 << 11
	gclkClkEn        = 1 << 14
)

var (
	tcCTRLA    = (*volatile.Register16)(unsafe.Pointer(uintptr(tc3Base + 0x00)))
	tcINTENSET = (*volatile.Register8)(unsafe.Pointer(uintptr(tc3Base + 0x0D)))
	tcINTFLAG  = (*volatile.Register8)(unsafe.Pointer(uintptr(tc3Base + 0x0E)))
	tcSTATUS   = (*volatile.Register8)(unsafe.Pointer(uintptr(tc3Base + 0x0F)))
	tcCC0      = (*volatile.Register16)(unsafe.Pointer(uintptr(tc3Base + 0x18)))

	pmAPBCMASK   = (*volatile.Register32)(unsafe.Pointer(uintptr(pmBase + 0x20)))
	gclkCLKCTRL  = (*volatile.Register16)(unsafe.Pointer(uintptr(gclkBase + 0x02)))
	gclkSTATUS   = (*volatile.Register8)(unsafe.Pointer(uintptr(gclkBase + 0x01)))
	errTC3Period = errors.New("tc3: rate outside 1..46875 Hz")
)

type tc3Timer struct{}

func (tc3Timer) Start(hz uint32) error {
	ticks := core.PeriodTicks(tc3Clock, hz)
	if ticks == 0 || ticks > 0x10000 {
		return errTC3Period
	}

	pmAPBCMASK.SetBits(pmAPBCTC3)
	gclkCLKCTRL.Set(gclkTC3ID | gclkClkEn)
	for gclkSTATUS.HasBits(tcSyncBusy) {
	}

	tcCTRLA.ClearBits(tcCtrlaEnable)
	tc3Sync()
	tcCTRLA.Set(tcCtrlaWavegenMF | tcCtrlaDiv1024)
	tc3Sync()
	tcCC0.Set(uint16(ticks - 1))
	tc3Sync()
	tcCTRLA.SetBits(tcCtrlaEnable)
	tc3Sync()
	return nil
}

func (tc3Timer) EnableInterrupt() {
	tcINTENSET.Set(tcIntMC0)
}

func (tc3Timer) Wait() error {
	if !tcINTFLAG.HasBits(tcIntMC0) {
		return core.ErrNotReady
	}
	// Write one to clear.
	tcINTFLAG.Set(tcIntMC0)
	return nil
}

func tc3Sync() {
	for tcSTATUS.HasBits(tcSyncBusy) {
	}
}
