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

// Package event provides a lock-free bitmask used by interrupt handlers
// to wake the goroutine servicing a peripheral.
//
// Events are level-triggered: any number of Set calls between two
// waits coalesce into a single wakeup carrying the OR of the bits.
// A wakeup means "state has changed, re-read it", never a queued delta.
package event

import (
	"errors"
	"sync/atomic"
	"time"
)

// Mask is a set of event bits for one peripheral domain.
type Mask uint32

// Has returns true if any bit of e is present in m.
func (m Mask) Has(e Mask) bool {
	return m&e != 0
}

// ErrNotSupported is returned by WaitForAll.
var ErrNotSupported = errors.New("event: wait for all is not supported")

// Flags is a shared event word. Set may be called from interrupt
// handlers; it is a single atomic OR plus a non-blocking notification.
// WaitForAny is for the single consumer goroutine of the peripheral.
type Flags struct {
	word   atomic.Uint32
	notify chan struct{} // nil when polling
	poll   time.Duration
}

// New returns Flags that block waiters on a notification channel.
func New() *Flags {
	return &Flags{notify: make(chan struct{}, 1)}
}

// NewPolled returns Flags whose waiters re-check the word every interval,
// for targets where the interrupt handler cannot reach a blocking primitive.
func NewPolled(interval time.Duration) *Flags {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Flags{poll: interval}
}

// Set ORs the event bits into the word. Setting a bit already set is a no-op.
func (f *Flags) Set(e Mask) {
	f.word.Or(uint32(e))
	if f.notify != nil {
		select {
		case f.notify <- struct{}{}:
		default:
		}
	}
}

// IsSet reports whether any of the bits in e are pending, without consuming them.
func (f *Flags) IsSet(e Mask) bool {
	return Mask(f.word.Load()).Has(e)
}

// Pending returns the current word without consuming it.
func (f *Flags) Pending() Mask {
	return Mask(f.word.Load())
}

// WaitForAny blocks until at least one bit is set, then resets the word
// to zero and returns the bits that were set. There is no timeout.
func (f *Flags) WaitForAny() Mask {
	for {
		if m := f.word.Swap(0); m != 0 {
			return Mask(m)
		}
		if f.notify != nil {
			<-f.notify
		} else {
			time.Sleep(f.poll)
		}
	}
}

// WaitForAll is not implemented; no peripheral needs it.
func (f *Flags) WaitForAll(e Mask) (Mask, error) {
	return 0, ErrNotSupported
}
