// Package config loads the firmware configuration from JSON or YAML.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rtfm/app/serialtx"
	"rtfm/core"
	"rtfm/firmware"
)

var ErrInvalid = errors.New("invalid configuration")

// Priorities are the NVIC priorities of the two tasks.
type Priorities struct {
	Timer  uint8 `json:"timer" yaml:"timer"`
	Serial uint8 `json:"serial" yaml:"serial"`
}

// Config describes one firmware build.
type Config struct {
	Program    string     `json:"program" yaml:"program"`
	TimerHz    uint32     `json:"timer_hz" yaml:"timer_hz"`
	Baud       uint32     `json:"baud" yaml:"baud"`
	Message    string     `json:"message" yaml:"message"`
	Echo       bool       `json:"echo" yaml:"echo"`
	Priorities Priorities `json:"priorities" yaml:"priorities"`
	Levels     uint8      `json:"levels" yaml:"levels"`
	Debug      bool       `json:"debug" yaml:"debug"`
}

// Default returns the serial heartbeat at 1 Hz, 9600 baud.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// Load parses data in the given format ("json" or "yaml") and fills in
// missing values.
func Load(data []byte, format string) (*Config, error) {
	var c Config
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalid, format)
	}

	applyDefaults(&c)
	return &c, nil
}

// LoadFile reads path and picks the format from its extension. Files
// without a YAML extension are read as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return Load(data, format)
}

// applyDefaults fills in missing configuration values
func applyDefaults(c *Config) {
	if c.Program == "" {
		c.Program = "serial"
	}
	if c.TimerHz == 0 {
		c.TimerHz = 1
	}
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.Message == "" {
		c.Message = serialtx.DefaultMessage
	}
	if c.Levels == 0 {
		c.Levels = 4 // SAMD21 NVIC
	}
	if c.Priorities.Timer == 0 {
		c.Priorities.Timer = 2
	}
	if c.Priorities.Serial == 0 {
		c.Priorities.Serial = 1
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := firmware.ParseProgram(c.Program); err != nil {
		bad("program %q", c.Program)
	}
	if c.TimerHz == 0 {
		bad("timer_hz must be positive")
	}
	if c.Baud == 0 {
		bad("baud must be positive")
	}
	if len(c.Message) == 0 || len(c.Message) > serialtx.MaxMessage {
		bad("message length %d outside 1..%d", len(c.Message), serialtx.MaxMessage)
	}
	if c.Levels == 0 || core.Priority(c.Levels) >= core.CeilingAuto {
		bad("levels %d", c.Levels)
	}
	if c.Priorities.Timer == 0 || c.Priorities.Timer > c.Levels {
		bad("timer priority %d outside 1..%d", c.Priorities.Timer, c.Levels)
	}
	if c.Priorities.Serial == 0 || c.Priorities.Serial > c.Levels {
		bad("serial priority %d outside 1..%d", c.Priorities.Serial, c.Levels)
	}
	return errors.Join(errs...)
}

// Firmware converts the configuration into firmware options.
func (c *Config) Firmware() (firmware.Options, error) {
	if err := c.Validate(); err != nil {
		return firmware.Options{}, err
	}
	prog, _ := firmware.ParseProgram(c.Program)
	return firmware.Options{
		Program:        prog,
		TimerHz:        c.TimerHz,
		Message:        c.Message,
		Baud:           c.Baud,
		Echo:           c.Echo,
		TimerPriority:  core.Priority(c.Priorities.Timer),
		SerialPriority: core.Priority(c.Priorities.Serial),
	}, nil
}
