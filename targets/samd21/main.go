//go:build tinygo && atsamd21

// Firmware image for SAMD21 boards (SparkFun SAMD21 Mini pinout): TC3 drives
// the serial heartbeat on SERCOM0 (D0/D1), the board LED shows receive
// activity and the TX/RX LEDs show the transmit status.
package main

import (
	"context"
	"device/sam"
	"machine"
	"runtime/interrupt"
	"time"

	"rtfm/core"
	"rtfm/firmware"
)

// spareIRQ is an unused peripheral line that carries the receive task.
const spareIRQ = sam.IRQ_AC

var ctl = newNVIC()

func main() {
	core.SetDebugWriter(func(s string) { println(s) })

	interrupt.New(sam.IRQ_TC3, func(interrupt.Interrupt) {
		ctl.dispatch(firmware.SourceTC3)
	})
	interrupt.New(spareIRQ, func(interrupt.Interrupt) {
		ctl.dispatch(firmware.SourceSERCOM0)
	})

	opts := firmware.DefaultOptions()

	uart := machine.UART1
	uart.Configure(machine.UARTConfig{BaudRate: opts.Baud, TX: machine.PA10, RX: machine.PA11})
	ctl.route(firmware.SourceSERCOM0, spareIRQ)
	ctl.watch(uart, firmware.SourceSERCOM0)

	led, txLED, rxLED := machine.PA17, machine.PA27, machine.PB03
	for _, pin := range []machine.Pin{led, txLED, rxLED} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.High()
	}

	fw, err := firmware.Init(ctl, firmware.Peripherals{
		LED:   core.NewOutputPin(led),
		TxLED: core.NewOutputPin(txLED),
		RxLED: core.NewOutputPin(rxLED),
		Timer: tc3Timer{},
		UART:  core.NewUARTPort(uart),
	}, opts)
	if err != nil {
		halt(err)
	}
	halt(fw.Run(context.Background()))
}

// halt reports a fatal error forever. Tasks never run after a failed
// initialization.
func halt(err error) {
	for {
		println("rtfm: " + err.Error())
		core.DumpTrace()
		time.Sleep(5 * time.Second)
	}
}
