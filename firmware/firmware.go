// Package firmware is the application's initialization phase. It takes the
// raw peripheral handles once, declares every resource and task, and returns
// a built dispatcher ready to run.
package firmware

import (
	"context"
	"errors"

	"rtfm/app/blink"
	"rtfm/app/serialtx"
	"rtfm/core"
)

// SAMD21 interrupt lines used by the programs.
const (
	SourceSERCOM0 core.Source = 9
	SourceTC3     core.Source = 18
)

var (
	ErrUnknownProgram    = errors.New("unknown program")
	ErrMissingPeripheral = errors.New("peripheral not provided")
	ErrBaudRate          = errors.New("baud rate must be positive")
)

// Program selects the application that runs on the dispatcher.
type Program uint8

const (
	Blinky Program = iota
	Serial
)

func (p Program) String() string {
	switch p {
	case Blinky:
		return "blinky"
	case Serial:
		return "serial"
	default:
		return "unknown"
	}
}

// ParseProgram returns the program with the given name.
func ParseProgram(name string) (Program, error) {
	switch name {
	case "blinky":
		return Blinky, nil
	case "serial":
		return Serial, nil
	}
	return 0, ErrUnknownProgram
}

// Options configure a program.
type Options struct {
	Program        Program
	TimerHz        uint32
	Message        string
	Baud           uint32 // SERCOM0 rate, applied by the hardware layer before Init
	Echo           bool
	TimerPriority  core.Priority
	SerialPriority core.Priority

	// Publish receives the idle task's snapshot whenever it changes. It runs
	// at idle priority.
	Publish func(Snapshot)
}

// DefaultOptions returns the serial program at 1 Hz sending the default
// greeting.
func DefaultOptions() Options {
	return Options{
		Program:        Serial,
		TimerHz:        1,
		Message:        serialtx.DefaultMessage,
		Baud:           9600,
		TimerPriority:  2,
		SerialPriority: 1,
	}
}

// Peripherals are the handles the hardware layer owns until Init. The LED
// pin is the board LED on D13; TxLED and RxLED are the serial activity LEDs.
// The blinky program drives them as blue, green and yellow.
type Peripherals struct {
	LED   core.OutputPin
	TxLED core.OutputPin
	RxLED core.OutputPin
	Timer core.PeriodicTimer
	UART  core.SerialPort
}

// Snapshot is what the idle task last observed.
type Snapshot struct {
	Mode    blink.Mode
	Tx      serialtx.Stats
	LastTx  serialtx.Report
	Rx      serialtx.RxStats
	Updates uint32
}

// Firmware is a built program.
type Firmware struct {
	App     *core.App
	Program Program

	publish func(Snapshot)
	snap    Snapshot
}

// Init runs the initialization phase for opts.Program on ctl.
func Init(ctl core.Controller, p Peripherals, opts Options) (*Firmware, error) {
	fw := &Firmware{Program: opts.Program, publish: opts.Publish}

	var setup func(a *core.App) error
	switch opts.Program {
	case Blinky:
		setup = func(a *core.App) error { return fw.setupBlinky(a, p, opts) }
	case Serial:
		setup = func(a *core.App) error { return fw.setupSerial(a, p, opts) }
	default:
		return nil, ErrUnknownProgram
	}

	app, err := core.Initialize(ctl, setup)
	if err != nil {
		return nil, err
	}
	fw.App = app
	core.DebugPrintln("[fw] " + opts.Program.String() + " ready")
	return fw, nil
}

// Run enters the idle loop.
func (fw *Firmware) Run(ctx context.Context) error {
	return fw.App.Run(ctx)
}

// Snapshot returns the idle task's last observation. Call it from the
// context that runs the idle loop, or after Run returned.
func (fw *Firmware) Snapshot() Snapshot {
	return fw.snap
}

// observe is called by the idle task with a fresh snapshot.
func (fw *Firmware) observe(s Snapshot) {
	s.Updates = fw.snap.Updates
	if s == fw.snap {
		return
	}
	s.Updates++
	fw.snap = s
	if fw.publish != nil {
		fw.publish(s)
	}
}

func startTimer(t core.PeriodicTimer, hz uint32) error {
	if t == nil {
		return &core.ConfigError{Resource: "TIMER", Err: ErrMissingPeripheral}
	}
	if err := t.Start(hz); err != nil {
		return &core.ConfigError{Resource: "TIMER", Err: err}
	}
	t.EnableInterrupt()
	return nil
}

func requirePins(pins ...namedPin) error {
	var errs []error
	for _, p := range pins {
		if p.pin == nil {
			errs = append(errs, &core.ConfigError{Resource: p.name, Err: ErrMissingPeripheral})
		}
	}
	return errors.Join(errs...)
}

type namedPin struct {
	name string
	pin  core.OutputPin
}
