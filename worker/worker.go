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

// Package worker runs the service loop shared by every peripheral:
// re-arm the interrupt, wait for its event flags, service the peripheral.

package worker

import (
	"time"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/event"
)

// DefaultRetry is the delay between attempts to re-arm an interrupt.
const DefaultRetry = 100 * time.Millisecond

// Peripheral is a device serviced by one worker goroutine.
type Peripheral interface {
	Name() string
	// Rearm enables the interrupt source that signals the flags.
	Rearm() error
	// Flags returns the event flags the interrupt handler sets.
	Flags() *event.Flags
	// Service re-derives the peripheral state after a wakeup.
	Service(event.Mask)
}

// Run services the peripheral forever. It never returns.
func Run(p Peripheral, retry time.Duration) {
	glog.Infof("%s: worker started", p.Name())
	for {
		Step(p, retry)
	}
}

// Start runs the peripheral worker in a new goroutine.
func Start(p Peripheral, retry time.Duration) {
	go Run(p, retry)
}

// Step performs one iteration of the worker loop.
func Step(p Peripheral, retry time.Duration) {
	Rearm(p, retry)
	ev := p.Flags().WaitForAny()
	if glog.V(2) {
		glog.Infof("%s: wakeup 0x%x", p.Name(), uint32(ev))
	}
	p.Service(ev)
}

// Rearm enables the interrupt source, retrying until it succeeds.
// A failure here is logged but never fatal.
func Rearm(p Peripheral, retry time.Duration) {
	for {
		err := p.Rearm()
		if err == nil {
			return
		}
		glog.Errorf("%s: error re-arming interrupt: %v", p.Name(), err)
		time.Sleep(retry)
	}
}
