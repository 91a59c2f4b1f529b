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
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	"github.com/aamcrae/gadget/io"
)

// Backend supplies the pins and byte streams for the peripherals.
type Backend interface {
	Output(pin int) (io.Output, error)
	// Input opens an interrupt capable input. A non-zero poll selects
	// edge detection by sampling, where the backend supports it.
	Input(pin int, poll time.Duration) (io.Input, error)
	Stream(c *LEDConfig) (io.Stream, error)
	Close()
}

// OpenBackend returns the named backend.
func OpenBackend(name string) (Backend, error) {
	switch name {
	case "sysfs":
		return &sysfsBackend{}, nil
	case "periph":
		if err := io.PeriphInit(); err != nil {
			return nil, fmt.Errorf("periph: %v", err)
		}
		return &periphBackend{}, nil
	case "sim":
		return NewSimBackend(), nil
	}
	return nil, fmt.Errorf("%q: unknown backend", name)
}

// closers tracks resources to release on Close.
type closers struct {
	mu sync.Mutex
	fs []func()
}

func (c *closers) add(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = append(c.fs, f)
}

func (c *closers) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.fs) - 1; i >= 0; i-- {
		c.fs[i]()
	}
	c.fs = nil
}

// openStream opens the hardware byte stream for the SPI and serial transports.
func openStream(c *LEDConfig) (io.Stream, func(), error) {
	switch c.Transport {
	case "spi":
		s, err := io.OpenSPI(c.SPI, physic.Frequency(c.SPIFreq)*physic.KiloHertz)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "serial":
		s, err := io.OpenSerial(c.Serial, c.Baud)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("%q: not a stream transport", c.Transport)
}

type sysfsBackend struct {
	closers
}

func (b *sysfsBackend) Output(pin int) (io.Output, error) {
	g, err := io.OutputPin(pin)
	if err != nil {
		return nil, err
	}
	b.add(g.Close)
	return g, nil
}

func (b *sysfsBackend) Input(pin int, poll time.Duration) (io.Input, error) {
	if poll != 0 {
		glog.Warningf("gpio%d: sysfs pins use edge interrupts, poll ignored", pin)
	}
	g, err := io.InputPin(pin)
	if err != nil {
		return nil, err
	}
	b.add(g.Close)
	return g, nil
}

func (b *sysfsBackend) Stream(c *LEDConfig) (io.Stream, error) {
	s, closer, err := openStream(c)
	if err != nil {
		return nil, err
	}
	b.add(closer)
	return s, nil
}

type periphBackend struct {
	closers
}

func (b *periphBackend) Output(pin int) (io.Output, error) {
	p, err := io.PeriphOutput(pin)
	if err != nil {
		return nil, err
	}
	b.add(p.Close)
	return p, nil
}

func (b *periphBackend) Input(pin int, poll time.Duration) (io.Input, error) {
	var freq physic.Frequency
	if poll != 0 {
		freq = physic.PeriodToFrequency(poll)
	}
	p, err := io.PeriphInput(pin, freq)
	if err != nil {
		return nil, err
	}
	b.add(p.Close)
	return p, nil
}

func (b *periphBackend) Stream(c *LEDConfig) (io.Stream, error) {
	s, closer, err := openStream(c)
	if err != nil {
		return nil, err
	}
	b.add(closer)
	return s, nil
}

// SimBackend provides simulated pins, indexed by pin number, and a
// simulated byte stream.
type SimBackend struct {
	mu      sync.Mutex
	Outputs map[int]*io.SimOutput
	Inputs  map[int]*io.SimInput
	Bus     *io.SimStream
}

func NewSimBackend() *SimBackend {
	return &SimBackend{
		Outputs: make(map[int]*io.SimOutput),
		Inputs:  make(map[int]*io.SimInput),
		Bus:     io.NewSimStream(),
	}
}

func (b *SimBackend) Output(pin int) (io.Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Outputs[pin]; ok {
		return nil, fmt.Errorf("pin %d: already in use", pin)
	}
	o := io.NewSimOutput()
	b.Outputs[pin] = o
	return o, nil
}

// Input returns a simulated input, resting high (pulled up).
func (b *SimBackend) Input(pin int, poll time.Duration) (io.Input, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Inputs[pin]; ok {
		return nil, fmt.Errorf("pin %d: already in use", pin)
	}
	in := io.NewSimInput(true)
	b.Inputs[pin] = in
	return in, nil
}

func (b *SimBackend) Stream(c *LEDConfig) (io.Stream, error) {
	return b.Bus, nil
}

// In returns the simulated input for pin.
func (b *SimBackend) In(pin int) *io.SimInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Inputs[pin]
}

// Out returns the simulated output for pin.
func (b *SimBackend) Out(pin int) *io.SimOutput {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Outputs[pin]
}

func (b *SimBackend) Close() {}
