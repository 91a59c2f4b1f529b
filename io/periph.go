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

package io

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpioutil"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// PeriphInit loads the periph.io host drivers. It may be called many times.
func PeriphInit() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// PeriphPin is a GPIO pin accessed through periph.io.
type PeriphPin struct {
	interrupt
	pin    gpio.PinIO
	level  atomic.Bool
	closed atomic.Bool
	done   chan struct{}
}

func periphPin(n int) (gpio.PinIO, error) {
	if err := PeriphInit(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("GPIO%d: no such pin", n)
	}
	return p, nil
}

// PeriphOutput opens pin n as an output, driven low.
func PeriphOutput(n int) (*PeriphPin, error) {
	p, err := periphPin(n)
	if err != nil {
		return nil, err
	}
	pp := &PeriphPin{pin: p}
	if err := pp.Low(); err != nil {
		return nil, err
	}
	return pp, nil
}

// PeriphInput opens pin n as a pulled-up input with edge detection on
// both edges. If poll is non-zero, edges are detected by sampling the
// pin at that frequency, for pins without hardware edge support.
func PeriphInput(n int, poll physic.Frequency) (*PeriphPin, error) {
	p, err := periphPin(n)
	if err != nil {
		return nil, err
	}
	if poll != 0 {
		p = gpioutil.PollEdge(p, poll)
	}
	if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("%s: %v", p.Name(), err)
	}
	pp := &PeriphPin{pin: p, done: make(chan struct{})}
	go pp.watch()
	return pp, nil
}

func (p *PeriphPin) Set(v bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.pin.Out(gpio.Level(v)); err != nil {
		return err
	}
	p.level.Store(v)
	return nil
}

func (p *PeriphPin) High() error {
	return p.Set(true)
}

func (p *PeriphPin) Low() error {
	return p.Set(false)
}

func (p *PeriphPin) Toggle() error {
	return p.Set(!p.level.Load())
}

func (p *PeriphPin) Level() bool {
	return p.level.Load()
}

func (p *PeriphPin) Read() (bool, error) {
	if p.closed.Load() {
		return false, ErrClosed
	}
	return p.pin.Read() == gpio.High, nil
}

func (p *PeriphPin) EnableInterrupt() error {
	if p.closed.Load() {
		return ErrClosed
	}
	if p.done == nil {
		return fmt.Errorf("%s: not an input", p.pin.Name())
	}
	p.enable()
	return nil
}

func (p *PeriphPin) DisableInterrupt() error {
	p.disable()
	return nil
}

func (p *PeriphPin) watch() {
	for {
		select {
		case <-p.done:
			return
		default:
		}
		if p.pin.WaitForEdge(watchTimeout * time.Millisecond) {
			p.fire()
		}
	}
}

// Close halts the pin.
func (p *PeriphPin) Close() {
	if p.closed.Swap(true) {
		return
	}
	if p.done != nil {
		close(p.done)
	}
	p.disable()
	if err := p.pin.Halt(); err != nil {
		glog.Warningf("%s: halt: %v", p.pin.Name(), err)
	}
}

// SPIStream is a Stream over a periph.io SPI port.
type SPIStream struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenSPI opens the named SPI port (e.g "/dev/spidev0.0", or "" for the
// first one) in mode 0, 8 bits per word.
func OpenSPI(name string, freq physic.Frequency) (*SPIStream, error) {
	if err := PeriphInit(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &SPIStream{port: port, conn: conn}, nil
}

// Tx writes w, reading the same number of bytes into r if r is not nil.
func (s *SPIStream) Tx(w, r []byte) error {
	return s.conn.Tx(w, r)
}

// Transfer writes one byte and returns the byte read.
func (s *SPIStream) Transfer(b byte) (byte, error) {
	r := make([]byte, 1)
	err := s.conn.Tx([]byte{b}, r)
	return r[0], err
}

func (s *SPIStream) Close() error {
	return s.port.Close()
}
