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

// Package io defines the pin and byte-stream capabilities the peripheral
// drivers consume, and the backends that supply them: Linux sysfs GPIO,
// periph.io, a serial port, and simulated pins.

package io

import (
	"errors"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// Output is a digital output pin.
type Output interface {
	High() error
	Low() error
	Set(bool) error
	Toggle() error
	Level() bool // Last level driven
}

// Input is a digital input pin with an edge triggered interrupt.
// Interrupts are one-shot: once the handler has been called the
// interrupt stays disabled until EnableInterrupt is called again.
// The handler runs in the watcher context and must not block.
type Input interface {
	Read() (bool, error)
	Subscribe(func())
	EnableInterrupt() error
	DisableInterrupt() error
}

// Stream is a synchronous byte-stream output. Tx blocks until the
// transport has accepted w; r may be nil.
type Stream = drivers.SPI

// ErrClosed is returned for operations on a closed pin.
var ErrClosed = errors.New("io: pin closed")

// interrupt holds the one-shot handler state shared by all input backends.
type interrupt struct {
	handler atomic.Pointer[func()]
	enabled atomic.Bool
}

// Subscribe installs the interrupt handler.
func (i *interrupt) Subscribe(h func()) {
	i.handler.Store(&h)
}

func (i *interrupt) enable() {
	i.enabled.Store(true)
}

func (i *interrupt) disable() {
	i.enabled.Store(false)
}

// fire is called by an edge watcher. If the interrupt is armed it is
// disarmed and the handler called.
func (i *interrupt) fire() {
	if !i.enabled.CompareAndSwap(true, false) {
		return
	}
	if h := i.handler.Load(); h != nil {
		(*h)()
	}
}
