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

// Package button turns a momentary push button into an on/off toggle.
package button

import (
	"github.com/golang/glog"

	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/io"
	"github.com/aamcrae/gadget/state"
)

// Changed signals an edge on the button pin.
const Changed event.Mask = 1 << 0

// Toggle is the debounced button state. The toggle flips once each
// time the pin is seen high after having been seen low.
type Toggle struct {
	Pressed bool // Last level read
	On      bool // Toggle state
	seenLow bool
}

// Update applies a pin reading and returns true if the toggle flipped.
func (t *Toggle) Update(level bool) bool {
	t.Pressed = level
	if !level {
		t.seenLow = true
		return false
	}
	if !t.seenLow {
		return false
	}
	t.seenLow = false
	t.On = !t.On
	return true
}

// Worker services the button pin.
type Worker struct {
	pin      io.Input
	flags    *event.Flags
	shared   *state.Guarded[Toggle]
	onToggle func(bool)
}

// NewWorker creates the button worker, subscribing the pin interrupt
// to the event flags. onToggle, if not nil, is called from the worker
// each time the toggle flips.
func NewWorker(pin io.Input, flags *event.Flags, onToggle func(bool)) *Worker {
	w := &Worker{
		pin:      pin,
		flags:    flags,
		shared:   state.New(Toggle{}),
		onToggle: onToggle,
	}
	pin.Subscribe(func() {
		flags.Set(Changed)
	})
	return w
}

func (w *Worker) Name() string {
	return "button"
}

func (w *Worker) Rearm() error {
	return w.pin.EnableInterrupt()
}

func (w *Worker) Flags() *event.Flags {
	return w.flags
}

// Service reads the pin and updates the toggle.
func (w *Worker) Service(event.Mask) {
	level, err := w.pin.Read()
	if err != nil {
		glog.Errorf("button: reading pin: %v", err)
		return
	}
	var flipped, on bool
	err = w.shared.Update(func(t *Toggle) error {
		flipped = t.Update(level)
		on = t.On
		return nil
	})
	if err != nil {
		glog.Fatalf("button: updating state: %v", err)
	}
	if flipped {
		glog.V(1).Infof("button: toggle %v", on)
		if w.onToggle != nil {
			w.onToggle(on)
		}
	}
}

// State returns the current button state.
func (w *Worker) State() (Toggle, error) {
	var t Toggle
	err := w.shared.View(func(s Toggle) {
		t = s
	})
	return t, err
}

// On returns the toggle state.
func (w *Worker) On() (bool, error) {
	t, err := w.State()
	return t.On, err
}
