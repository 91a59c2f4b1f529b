// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package device

import (
	"fmt"
	"strings"
	"time"

	"github.com/aamcrae/config"

	"github.com/aamcrae/gadget/rotary"
	"github.com/aamcrae/gadget/worker"
)

// Config is the gadget configuration, read from a configuration file.
// A peripheral whose section is absent is not used.
type Config struct {
	Backend string        // sysfs, periph or sim
	Retry   time.Duration // Delay between attempts to re-arm an interrupt
	Poll    time.Duration // If non-zero, event flags are polled at this interval
	LED     *LEDConfig
	Encoder *EncoderConfig
	Button  *ButtonConfig
	Power   *PowerConfig
}

type LEDConfig struct {
	Clock, Data int    // GPIOs for bit-banged output
	Length      int    // Number of LEDs on the strip
	Transport   string // gpio, spi or serial
	SPI         string // SPI port name
	SPIFreq     int    // SPI clock in kHz
	Serial      string // Serial device
	Baud        int
}

type EncoderConfig struct {
	A, B     int
	Mode     rotary.Mode
	Min, Max int8
	Detents  int           // Detents per revolution, for RPM
	PollEdge time.Duration // If non-zero, detect edges by sampling (periph only)
}

type ButtonConfig struct {
	Pin int
}

type PowerConfig struct {
	Pin int
}

// Defaults
const (
	defaultBackend = "sysfs"
	defaultLength  = 7
	defaultSPIFreq = 4000
	defaultBaud    = 115200
	defaultDetents = 20
	defaultMin     = -100
	defaultMax     = 100
)

// section is the part of a config file section used here.
type section interface {
	GetArg(string) (string, error)
	Parse(string, string, ...interface{}) (int, error)
}

// ReadConfig parses a configuration file.
func ReadConfig(file string) (*Config, error) {
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return ParseConfig(conf)
}

// ParseConfig reads and validates the gadget config.
// Sample config:
//
//	[system]
//	backend=sysfs           # sysfs, periph or sim
//	retry=100ms             # interrupt re-arm retry delay
//	poll=1ms                # poll event flags instead of blocking
//	[led]
//	clock=45                # GPIOs for clock and data
//	data=42
//	length=7                # LEDs on the strip
//	transport=gpio          # gpio, spi or serial
//	spi=/dev/spidev0.0,4000 # SPI port and clock in kHz
//	serial=/dev/ttyUSB0,115200
//	[encoder]
//	pins=4,5                # GPIOs for pins A and B
//	mode=two3               # four3, four0 or two3
//	range=-100,100
//	detents=20
//	poll=1ms                # sample pins for edges (periph only)
//	[button]
//	pin=0
//	[power]
//	pin=46
func ParseConfig(conf *config.Config) (*Config, error) {
	c := &Config{Backend: defaultBackend, Retry: worker.DefaultRetry}
	var err error
	if s := conf.GetSection("system"); s != nil {
		if err = systemConfig(s, c); err != nil {
			return nil, fmt.Errorf("system: %v", err)
		}
	}
	if s := conf.GetSection("led"); s != nil {
		if c.LED, err = ledConfig(s); err != nil {
			return nil, fmt.Errorf("led: %v", err)
		}
	}
	if s := conf.GetSection("encoder"); s != nil {
		if c.Encoder, err = encoderConfig(s); err != nil {
			return nil, fmt.Errorf("encoder: %v", err)
		}
	}
	if s := conf.GetSection("button"); s != nil {
		c.Button = new(ButtonConfig)
		if err = parse(s, "pin", "%d", &c.Button.Pin); err != nil {
			return nil, fmt.Errorf("button: %v", err)
		}
	}
	if s := conf.GetSection("power"); s != nil {
		c.Power = new(PowerConfig)
		if err = parse(s, "pin", "%d", &c.Power.Pin); err != nil {
			return nil, fmt.Errorf("power: %v", err)
		}
	}
	return c, nil
}

func systemConfig(s section, c *Config) error {
	if b, ok := optional(s, "backend"); ok {
		switch b {
		case "sysfs", "periph", "sim":
			c.Backend = b
		default:
			return fmt.Errorf("backend: %q unknown", b)
		}
	}
	var err error
	if c.Retry, err = duration(s, "retry", c.Retry); err != nil {
		return err
	}
	if c.Poll, err = duration(s, "poll", 0); err != nil {
		return err
	}
	return nil
}

func ledConfig(s section) (*LEDConfig, error) {
	l := &LEDConfig{Length: defaultLength, Transport: "gpio", SPIFreq: defaultSPIFreq, Baud: defaultBaud}
	if _, ok := optional(s, "length"); ok {
		if err := parse(s, "length", "%d", &l.Length); err != nil {
			return nil, err
		}
	}
	if l.Length <= 0 {
		return nil, fmt.Errorf("length: %d is invalid", l.Length)
	}
	if t, ok := optional(s, "transport"); ok {
		l.Transport = t
	}
	switch l.Transport {
	case "gpio":
		if err := parse(s, "clock", "%d", &l.Clock); err != nil {
			return nil, err
		}
		if err := parse(s, "data", "%d", &l.Data); err != nil {
			return nil, err
		}
	case "spi":
		if v, ok := optional(s, "spi"); ok {
			name, freq, _ := strings.Cut(v, ",")
			l.SPI = name
			if freq != "" {
				if _, err := fmt.Sscanf(freq, "%d", &l.SPIFreq); err != nil {
					return nil, fmt.Errorf("spi: %v", err)
				}
			}
		}
	case "serial":
		v, err := s.GetArg("serial")
		if err != nil {
			return nil, fmt.Errorf("serial: %v", err)
		}
		name, baud, _ := strings.Cut(v, ",")
		l.Serial = name
		if baud != "" {
			if _, err := fmt.Sscanf(baud, "%d", &l.Baud); err != nil {
				return nil, fmt.Errorf("serial: %v", err)
			}
		}
	default:
		return nil, fmt.Errorf("transport: %q unknown", l.Transport)
	}
	return l, nil
}

func encoderConfig(s section) (*EncoderConfig, error) {
	e := &EncoderConfig{Mode: rotary.Two3, Min: defaultMin, Max: defaultMax, Detents: defaultDetents}
	n, err := s.Parse("pins", "%d,%d", &e.A, &e.B)
	if err != nil {
		return nil, fmt.Errorf("pins: %v", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("pins: argument count")
	}
	if m, ok := optional(s, "mode"); ok {
		if e.Mode, err = rotary.ParseMode(m); err != nil {
			return nil, err
		}
	}
	if _, ok := optional(s, "range"); ok {
		var min, max int
		n, err := s.Parse("range", "%d,%d", &min, &max)
		if err != nil {
			return nil, fmt.Errorf("range: %v", err)
		}
		if n != 2 || min < -128 || max > 127 || min >= max {
			return nil, fmt.Errorf("range: [%d,%d] is invalid", min, max)
		}
		e.Min, e.Max = int8(min), int8(max)
	}
	if _, ok := optional(s, "detents"); ok {
		if err := parse(s, "detents", "%d", &e.Detents); err != nil {
			return nil, err
		}
	}
	if e.PollEdge, err = duration(s, "poll", 0); err != nil {
		return nil, err
	}
	return e, nil
}

// parse reads a single value from a key.
func parse(s section, key, format string, v interface{}) error {
	n, err := s.Parse(key, format, v)
	if err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: argument count", key)
	}
	return nil
}

// optional returns the value of key, if it is present.
func optional(s section, key string) (string, bool) {
	v, err := s.GetArg(key)
	if err != nil {
		return "", false
	}
	return v, true
}

func duration(s section, key string, def time.Duration) (time.Duration, error) {
	v, ok := optional(s, key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", key, err)
	}
	return d, nil
}
