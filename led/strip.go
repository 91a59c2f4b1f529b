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

// Package led holds the requested colours for the LED strip and the
// worker that pushes them to the hardware.
package led

import (
	"errors"
	"fmt"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/state"
)

// UpdateEvent signals that the requested colours have changed.
const UpdateEvent event.Mask = 1 << 0

var (
	ErrOutOfRange       = errors.New("led: requested LED is out of range")
	ErrCapacityExceeded = errors.New("led: more LEDs requested than available")
)

// Strip is the shared request for the LED strip. Any goroutine may
// set colours; the LED worker reads them.
type Strip struct {
	colors   *state.Guarded[[]apa102.Color]
	flags    *event.Flags
	capacity int
}

// NewStrip creates the request state for a strip of n LEDs, all off.
func NewStrip(n int, flags *event.Flags) *Strip {
	return &Strip{
		colors:   state.New(make([]apa102.Color, n)),
		flags:    flags,
		capacity: n,
	}
}

// SetOne sets the colour of the LED at index. The index must be within
// the current length of the request, which SetAll may have shortened.
func (s *Strip) SetOne(index int, c apa102.Color) error {
	err := s.colors.Update(func(leds *[]apa102.Color) error {
		if index < 0 || index >= len(*leds) {
			return fmt.Errorf("%d (length %d): %w", index, len(*leds), ErrOutOfRange)
		}
		(*leds)[index] = c
		return nil
	})
	if err != nil {
		return err
	}
	s.flags.Set(UpdateEvent)
	return nil
}

// SetAll replaces the request with colors, which may be shorter than
// the current request but not longer.
func (s *Strip) SetAll(colors []apa102.Color) error {
	err := s.colors.Update(func(leds *[]apa102.Color) error {
		if len(colors) > len(*leds) {
			return fmt.Errorf("%d (length %d): %w", len(colors), len(*leds), ErrCapacityExceeded)
		}
		*leds = append((*leds)[:0], colors...)
		return nil
	})
	if err != nil {
		return err
	}
	s.flags.Set(UpdateEvent)
	return nil
}

// Colors returns a copy of the current request.
func (s *Strip) Colors() ([]apa102.Color, error) {
	var c []apa102.Color
	err := s.colors.View(func(leds []apa102.Color) {
		c = append(make([]apa102.Color, 0, len(leds)), leds...)
	})
	return c, err
}

// Len returns the current length of the request.
func (s *Strip) Len() (int, error) {
	var n int
	err := s.colors.View(func(leds []apa102.Color) {
		n = len(leds)
	})
	return n, err
}

// Capacity returns the physical length of the strip.
func (s *Strip) Capacity() int {
	return s.capacity
}

// Flags returns the event flags the strip signals on update.
func (s *Strip) Flags() *event.Flags {
	return s.flags
}
