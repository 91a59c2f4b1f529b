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

package rotary

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/io"
	"github.com/aamcrae/gadget/state"
)

// Encoder events.
const (
	PinChanged event.Mask = 1 << 0 // Either pin has changed
	Reseed     event.Mask = 1 << 1 // A new position has been requested
)

// Worker services the encoder pins and publishes the decoded state.
type Worker struct {
	dec     *Decoder
	a, b    io.Input
	flags   *event.Flags
	shared  *state.Guarded[State]
	request *state.Guarded[*int8]
	min     int8 // Range of positions, fixed at creation
	max     int8
}

// NewWorker creates the encoder worker, subscribing the pin interrupts
// to the event flags.
func NewWorker(dec *Decoder, flags *event.Flags) *Worker {
	w := &Worker{
		dec:     dec,
		a:       dec.a,
		b:       dec.b,
		flags:   flags,
		shared:  state.New(dec.State()),
		request: state.New[*int8](nil),
		min:     dec.state.Min,
		max:     dec.state.Max,
	}
	handler := func() {
		flags.Set(PinChanged)
	}
	w.a.Subscribe(handler)
	w.b.Subscribe(handler)
	return w
}

func (w *Worker) Name() string {
	return "encoder"
}

// Rearm enables the interrupts on both pins.
func (w *Worker) Rearm() error {
	if err := w.a.EnableInterrupt(); err != nil {
		return err
	}
	return w.b.EnableInterrupt()
}

func (w *Worker) Flags() *event.Flags {
	return w.flags
}

// Service applies any requested position, then samples the pins and
// publishes the new state.
func (w *Worker) Service(ev event.Mask) {
	if ev.Has(Reseed) {
		w.reseed()
	}
	if _, err := w.dec.Update(); err != nil {
		glog.Errorf("encoder: reading pins: %v", err)
		return
	}
	st := w.dec.State()
	err := w.shared.Update(func(s *State) error {
		*s = st
		return nil
	})
	if err != nil {
		glog.Fatalf("encoder: publishing state: %v", err)
	}
	glog.V(1).Infof("encoder: position %d (raw %d) %s", st.Position, st.Raw, st.Direction())
}

func (w *Worker) reseed() {
	var p *int8
	err := w.request.Update(func(r **int8) error {
		p, *r = *r, nil
		return nil
	})
	if err != nil {
		glog.Fatalf("encoder: reading request: %v", err)
	}
	if p == nil {
		return
	}
	if err := w.dec.SetPosition(*p); err != nil {
		glog.Errorf("encoder: discarding position request: %v", err)
	}
}

// SetPosition requests that the worker move the reported position to p.
func (w *Worker) SetPosition(p int8) error {
	if p < w.min || p > w.max {
		return fmt.Errorf("%d [%d,%d]: %w", p, w.min, w.max, ErrRange)
	}
	err := w.request.Update(func(r **int8) error {
		*r = &p
		return nil
	})
	if err != nil {
		return err
	}
	w.flags.Set(Reseed)
	return nil
}

// State returns the last published encoder state.
func (w *Worker) State() (State, error) {
	var st State
	err := w.shared.View(func(s State) {
		st = s
	})
	return st, err
}
