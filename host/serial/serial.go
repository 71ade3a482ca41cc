// Package serial opens the board's serial port on the host.
package serial

import (
	"io"
)

// Port is an open serial line. The heartbeat monitor only reads from it.
type Port interface {
	io.ReadWriteCloser

	// Device returns the path the port was opened on.
	Device() string
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; the firmware runs SERCOM0 at 9600 by default.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the settings the firmware uses.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: 500,
	}
}
