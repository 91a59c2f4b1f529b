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

// Package power switches the peripheral power rail.
package power

import (
	"sync"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/io"
)

// State of the rail.
type State int

const (
	Off State = iota
	On
)

func (s State) String() string {
	if s == On {
		return "on"
	}
	return "off"
}

// Rail is the peripheral power rail, driven by one output pin.
type Rail struct {
	mu    sync.Mutex
	pin   io.Output
	state State
}

// New drives the rail pin low and returns the rail, off.
func New(pin io.Output) (*Rail, error) {
	if err := pin.Low(); err != nil {
		return nil, err
	}
	return &Rail{pin: pin, state: Off}, nil
}

// State returns the current state of the rail.
func (r *Rail) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wake turns the rail on.
func (r *Rail) Wake() error {
	return r.Set(On)
}

// Sleep turns the rail off.
func (r *Rail) Sleep() error {
	return r.Set(Off)
}

// Set drives the rail to s. On error the recorded state is unchanged.
func (r *Rail) Set(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(s)
}

func (r *Rail) set(s State) error {
	var err error
	if s == On {
		err = r.pin.High()
	} else {
		err = r.pin.Low()
	}
	if err != nil {
		return err
	}
	r.state = s
	glog.V(1).Infof("power: rail %s", s)
	return nil
}

// Toggle switches the rail to the opposite state.
func (r *Rail) Toggle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == On {
		return r.set(Off)
	}
	return r.set(On)
}
