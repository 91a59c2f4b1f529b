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

// Package rotary decodes a two pin quadrature rotary encoder.

package rotary

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aamcrae/gadget/io"
)

// Mode selects how many raw transitions make one reported step.
type Mode int

const (
	Four3 Mode = iota + 1 // 4 steps, latch at position 3 only
	Four0                 // 4 steps, latch at position 0 (reverse wiring)
	Two3                  // 2 steps, latch at positions 0 and 3
)

var modeNames = map[Mode]string{
	Four3: "four3",
	Four0: "four0",
	Two3:  "two3",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// shift converts the raw count into the reported position.
func (m Mode) shift() uint {
	if m == Two3 {
		return 1
	}
	return 2
}

// ParseMode converts a mode name (four3, four0, two3) to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if strings.EqualFold(s, n) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%q: unknown latch mode", s)
}

// Direction of the last change of position.
type Direction int

const (
	CounterClockwise Direction = -1
	NoRotation       Direction = 0
	Clockwise        Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	}
	return "none"
}

// ErrRange is returned for an invalid range or a position outside it.
var ErrRange = errors.New("rotary: position out of range")

// direction is indexed by previous | current<<2, where a state is
// pinA | pinB<<1.
// positions: [3] 1 0 2 [3] 1 0 2 [3]
// Rotating right counts up. Entries where both pins changed cannot
// come from a clean signal and are ignored.
var direction = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// State is a snapshot of the encoder position.
type State struct {
	Mode        Mode
	Min, Max    int8      // Range of reported positions
	Raw         int16     // Raw transition count
	Position    int8      // Reported position
	Prev        int8      // Reported position before the last change
	Changed     time.Time // Time of the last transition
	PrevChanged time.Time // Time of the transition before that
}

// Direction compares the reported position to the previous one.
func (s State) Direction() Direction {
	switch {
	case s.Prev > s.Position:
		return Clockwise
	case s.Prev < s.Position:
		return CounterClockwise
	}
	return NoRotation
}

// Duration returns the time between the last two transitions.
func (s State) Duration() time.Duration {
	d := s.Changed.Sub(s.PrevChanged)
	if d < 0 {
		return 0
	}
	return d
}

// RPM estimates the rotation speed for an encoder with the given
// number of detents per revolution. It is 0 until two transitions
// have been seen at distinct times.
func (s State) RPM(detents int) float64 {
	ms := float64(s.Duration()) / float64(time.Millisecond)
	if ms == 0 || detents <= 0 {
		return 0
	}
	return 60_000 / (ms * float64(detents))
}

// Decoder tracks the encoder position from pin samples. It is not safe
// for concurrent use; the encoder worker owns it.
type Decoder struct {
	a, b  io.Input
	prev  uint8
	state State
	now   func() time.Time
}

// NewDecoder creates a decoder on pins a and b, positioned at the middle of
// the range [min, max].
func NewDecoder(a, b io.Input, mode Mode, min, max int8) (*Decoder, error) {
	if _, ok := modeNames[mode]; !ok {
		return nil, fmt.Errorf("%v: unknown latch mode", mode)
	}
	if min >= max {
		return nil, fmt.Errorf("[%d,%d]: %w", min, max, ErrRange)
	}
	d := &Decoder{a: a, b: b, now: time.Now}
	t := d.now()
	d.state = State{Mode: mode, Min: min, Max: max, Changed: t, PrevChanged: t}
	mid := int8((int(min) + int(max)) / 2)
	d.reseed(mid)
	d.state.Prev = d.state.Position
	var err error
	if d.prev, err = d.sample(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) sample() (uint8, error) {
	a, err := d.a.Read()
	if err != nil {
		return 0, err
	}
	b, err := d.b.Read()
	if err != nil {
		return 0, err
	}
	var s uint8
	if a {
		s |= 1
	}
	if b {
		s |= 2
	}
	return s, nil
}

// Update samples the pins and applies any transition. It returns
// true if the pins changed.
func (d *Decoder) Update() (bool, error) {
	cur, err := d.sample()
	if err != nil {
		return false, err
	}
	if cur == d.prev {
		return false, nil
	}
	s := &d.state
	shift := s.Mode.shift()
	s.Raw += int16(direction[d.prev|cur<<2])
	// Out of range positions wrap around to the opposite end.
	if ext := s.Raw >> shift; ext > int16(s.Max) {
		s.Raw = int16(s.Min) << shift
	} else if ext < int16(s.Min) {
		s.Raw = int16(s.Max) << shift
	}
	d.prev = cur
	s.PrevChanged = s.Changed
	s.Changed = d.now()
	d.project()
	return true, nil
}

// project updates the reported position from the raw count.
func (d *Decoder) project() {
	s := &d.state
	if p := int8(s.Raw >> s.Mode.shift()); p != s.Position {
		s.Prev = s.Position
		s.Position = p
	}
}

func (d *Decoder) reseed(p int8) {
	d.state.Raw = int16(p) << d.state.Mode.shift()
	d.project()
}

// SetPosition moves the reported position to p, which must be in range.
func (d *Decoder) SetPosition(p int8) error {
	if p < d.state.Min || p > d.state.Max {
		return fmt.Errorf("%d [%d,%d]: %w", p, d.state.Min, d.state.Max, ErrRange)
	}
	d.reseed(p)
	return nil
}

// State returns a snapshot of the decoder state.
func (d *Decoder) State() State {
	return d.state
}
