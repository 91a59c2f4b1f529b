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
	"errors"
	"sync"
	"sync/atomic"
)

// SimOutput is an in-memory output pin.
type SimOutput struct {
	mu       sync.Mutex
	level    bool
	changes  int
	onChange func(bool)
	fail     error
}

// NewSimOutput returns a simulated output pin, driven low.
func NewSimOutput() *SimOutput {
	return &SimOutput{}
}

// OnChange registers a function called after every write, with the new level.
func (s *SimOutput) OnChange(f func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = f
}

// Fail makes subsequent writes return err (nil to clear).
func (s *SimOutput) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *SimOutput) Set(v bool) error {
	s.mu.Lock()
	if s.fail != nil {
		err := s.fail
		s.mu.Unlock()
		return err
	}
	s.level = v
	s.changes++
	f := s.onChange
	s.mu.Unlock()
	if f != nil {
		f(v)
	}
	return nil
}

func (s *SimOutput) High() error {
	return s.Set(true)
}

func (s *SimOutput) Low() error {
	return s.Set(false)
}

func (s *SimOutput) Toggle() error {
	return s.Set(!s.Level())
}

func (s *SimOutput) Level() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Changes returns the number of writes to the pin.
func (s *SimOutput) Changes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes
}

// ErrSimRearm is returned by a SimInput asked to fail re-arming.
var ErrSimRearm = errors.New("sim: interrupt enable failed")

// SimInput is an in-memory input pin. Changing its level fires the
// interrupt if armed.
type SimInput struct {
	interrupt
	level    atomic.Bool
	failArm  atomic.Int32
	armCalls atomic.Int32
}

// NewSimInput returns a simulated input pin at the level given.
func NewSimInput(level bool) *SimInput {
	s := &SimInput{}
	s.level.Store(level)
	return s
}

// SetLevel changes the pin level, firing the interrupt on an edge.
func (s *SimInput) SetLevel(v bool) {
	if s.level.Swap(v) != v {
		s.fire()
	}
}

// Armed reports whether the interrupt is enabled.
func (s *SimInput) Armed() bool {
	return s.enabled.Load()
}

// FailRearm makes the next n calls to EnableInterrupt fail.
func (s *SimInput) FailRearm(n int) {
	s.failArm.Store(int32(n))
}

// ArmCalls returns the number of EnableInterrupt calls.
func (s *SimInput) ArmCalls() int {
	return int(s.armCalls.Load())
}

func (s *SimInput) Read() (bool, error) {
	return s.level.Load(), nil
}

func (s *SimInput) EnableInterrupt() error {
	s.armCalls.Add(1)
	if s.failArm.Load() > 0 {
		s.failArm.Add(-1)
		return ErrSimRearm
	}
	s.enable()
	return nil
}

func (s *SimInput) DisableInterrupt() error {
	s.disable()
	return nil
}

// SimStream is an in-memory Stream recording everything written.
type SimStream struct {
	mu   sync.Mutex
	data []byte
	tx   int
	fail error
}

func NewSimStream() *SimStream {
	return &SimStream{}
}

// Fail makes subsequent writes return err (nil to clear).
func (s *SimStream) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *SimStream) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.data = append(s.data, w...)
	s.tx++
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (s *SimStream) Transfer(b byte) (byte, error) {
	return 0, s.Tx([]byte{b}, nil)
}

// Take returns and clears the recorded bytes, and the number of Tx calls.
func (s *SimStream) Take() ([]byte, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, n := s.data, s.tx
	s.data, s.tx = nil, 0
	return d, n
}
