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

package main

import (
	"sync"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/io"
)

// Wire reassembles frames from the simulated clock and data pins, the
// way the first LED on a strip would. Data is sampled on the rising
// clock edge, least significant bit first.
type Wire struct {
	mu     sync.Mutex
	data   *io.SimOutput
	n      int
	cur    byte
	nbits  uint
	buf    []byte
	leds   []apa102.Color
	frames int
}

func NewWire(clock, data *io.SimOutput, n int) *Wire {
	w := &Wire{data: data, n: n, leds: make([]apa102.Color, n)}
	clock.OnChange(func(high bool) {
		if high {
			w.bit(data.Level())
		}
	})
	return w
}

func (w *Wire) bit(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v {
		w.cur |= 1 << w.nbits
	}
	w.nbits++
	if w.nbits < 8 {
		return
	}
	w.buf = append(w.buf, w.cur)
	w.cur, w.nbits = 0, 0
	if len(w.buf) < apa102.FrameLen(w.n) {
		return
	}
	leds, err := apa102.Decode(w.buf, w.n)
	w.buf = w.buf[:0]
	if err != nil {
		glog.Errorf("wire: %v", err)
		return
	}
	w.leds = leds
	w.frames++
}

// LEDs returns the colours from the last complete frame.
func (w *Wire) LEDs() []apa102.Color {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]apa102.Color(nil), w.leds...)
}

func (w *Wire) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}
