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
	"os"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// Mode
const (
	IN  = iota // Default
	OUT = iota
)

// Edge
const (
	NONE    = iota // Default
	RISING  = iota
	FALLING = iota
	BOTH    = iota
)

// Poll timeout for the edge watcher, so that Close is noticed.
const watchTimeout = 100 // milliseconds

// Gpio is one sysfs GPIO pin. It implements Output when opened with
// OutputPin, and Input when opened with InputPin.
type Gpio struct {
	interrupt
	fs        *sysfs
	number    int
	value     *os.File
	direction int
	edge      int
	level     atomic.Bool // Last driven output level
	closed    atomic.Bool
	done      chan struct{}
	exited    chan struct{} // Closed when the watcher returns
}

// OutputPin opens a GPIO pin and sets the direction as OUTPUT, driven low.
func OutputPin(gpio int) (*Gpio, error) {
	return openOutput(gpioFS, gpio)
}

func openOutput(fs *sysfs, gpio int) (*Gpio, error) {
	g, err := pin(fs, gpio)
	if err != nil {
		return nil, err
	}
	if err := g.Direction(OUT); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.Low(); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// InputPin opens a GPIO pin as an input with edge detection on both
// edges, and starts the edge watcher that drives the interrupt handler.
func InputPin(gpio int) (*Gpio, error) {
	return openInput(gpioFS, gpio)
}

func openInput(fs *sysfs, gpio int) (*Gpio, error) {
	g, err := pin(fs, gpio)
	if err != nil {
		return nil, err
	}
	if err := g.Edge(BOTH); err != nil {
		g.Close()
		return nil, err
	}
	g.done = make(chan struct{})
	g.exited = make(chan struct{})
	go g.watch()
	return g, nil
}

func pin(fs *sysfs, gpio int) (*Gpio, error) {
	g := &Gpio{fs: fs, number: gpio}
	if err := fs.export(gpio); err != nil {
		return nil, err
	}
	if err := g.Direction(IN); err != nil {
		fs.unexport(gpio)
		return nil, err
	}
	if err := g.Edge(NONE); err != nil {
		fs.unexport(gpio)
		return nil, err
	}
	var err error
	g.value, err = os.OpenFile(fs.attr(gpio, "value"), os.O_RDWR, 0600)
	if err != nil {
		fs.unexport(gpio)
		return nil, err
	}
	return g, nil
}

// Direction sets the mode (direction) of the GPIO pin.
func (g *Gpio) Direction(d int) error {
	var s string
	switch d {
	case IN:
		s = "in"
	case OUT:
		s = "out"
	default:
		return fmt.Errorf("gpio%d: unknown direction", g.number)
	}
	err := g.fs.set(g.number, "direction", s)
	if err == nil {
		g.direction = d
	}
	return err
}

// Edge sets the edge detection on the GPIO pin.
func (g *Gpio) Edge(e int) error {
	if g.direction != IN {
		return fmt.Errorf("gpio%d: not set as an input pin", g.number)
	}
	var s string
	switch e {
	case NONE:
		s = "none"
	case RISING:
		s = "rising"
	case FALLING:
		s = "falling"
	case BOTH:
		s = "both"
	default:
		return fmt.Errorf("gpio%d: unknown edge", g.number)
	}
	err := g.fs.set(g.number, "edge", s)
	if err == nil {
		g.edge = e
	}
	return err
}

// Set drives the output of the GPIO pin (only valid for OUTPUT pins).
func (g *Gpio) Set(v bool) error {
	if g.direction != OUT {
		return fmt.Errorf("gpio%d: is not output", g.number)
	}
	if g.closed.Load() {
		return ErrClosed
	}
	b := []byte{'0'}
	if v {
		b[0] = '1'
	}
	if _, err := g.value.WriteAt(b, 0); err != nil {
		return err
	}
	g.level.Store(v)
	return nil
}

func (g *Gpio) High() error {
	return g.Set(true)
}

func (g *Gpio) Low() error {
	return g.Set(false)
}

func (g *Gpio) Toggle() error {
	return g.Set(!g.level.Load())
}

// Level returns the last level driven on an output.
func (g *Gpio) Level() bool {
	return g.level.Load()
}

// Read returns the current value of the GPIO pin.
func (g *Gpio) Read() (bool, error) {
	if g.closed.Load() {
		return false, ErrClosed
	}
	b := make([]byte, 1)
	if _, err := g.value.ReadAt(b, 0); err != nil {
		return false, err
	}
	switch b[0] {
	case '0':
		return false, nil
	case '1':
		return true, nil
	}
	return false, fmt.Errorf("gpio%d: unknown value %q", g.number, b)
}

// EnableInterrupt arms the edge interrupt.
func (g *Gpio) EnableInterrupt() error {
	if g.closed.Load() {
		return ErrClosed
	}
	if g.edge == NONE {
		return fmt.Errorf("gpio%d: no edge detection set", g.number)
	}
	g.enable()
	return nil
}

// DisableInterrupt disarms the edge interrupt.
func (g *Gpio) DisableInterrupt() error {
	g.disable()
	return nil
}

// watch waits for edges using poll, and fires the interrupt on each one.
func (g *Gpio) watch() {
	defer close(g.exited)
	pfd := []unix.PollFd{{Fd: int32(g.value.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	// The value must be read to clear any pending edge.
	g.Read()
	for {
		select {
		case <-g.done:
			return
		default:
		}
		pfd[0].Revents = 0
		n, err := unix.Poll(pfd, watchTimeout)
		if err != nil {
			if err != unix.EINTR {
				glog.Errorf("gpio%d: poll: %v", g.number, err)
				time.Sleep(watchTimeout * time.Millisecond)
			}
			continue
		}
		if n == 0 {
			continue
		}
		g.Read()
		g.fire()
	}
}

// Close the GPIO pin and unexport it.
func (g *Gpio) Close() {
	if g.closed.Swap(true) {
		return
	}
	if g.done != nil {
		// The watcher notices within one poll timeout.
		close(g.done)
		<-g.exited
	}
	g.disable()
	g.value.Close()
	g.fs.unexport(g.number)
}
