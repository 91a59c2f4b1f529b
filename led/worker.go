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

package led

import (
	"time"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/event"
)

// Worker sends the requested colours to the strip whenever they change.
type Worker struct {
	strip *Strip
	tx    apa102.Transport
	retry time.Duration
}

// NewWorker creates the LED worker. An update is queued so that the
// strip is written with the initial request once the worker starts.
func NewWorker(strip *Strip, tx apa102.Transport, retry time.Duration) *Worker {
	strip.flags.Set(UpdateEvent)
	return &Worker{strip: strip, tx: tx, retry: retry}
}

func (w *Worker) Name() string {
	return "led"
}

// Rearm has nothing to enable: updates are signalled by the Strip setters.
func (w *Worker) Rearm() error {
	return nil
}

func (w *Worker) Flags() *event.Flags {
	return w.strip.flags
}

// Service sends the current request. If the transport fails, the
// update is signalled again after the retry delay, so the latest
// request is sent on the next pass.
func (w *Worker) Service(event.Mask) {
	colors, err := w.strip.Colors()
	if err != nil {
		glog.Fatalf("led: reading requested state: %v", err)
	}
	if err := w.tx.Send(apa102.Encode(colors)); err != nil {
		glog.Errorf("led: sending %d LEDs: %v", len(colors), err)
		time.Sleep(w.retry)
		w.strip.flags.Set(UpdateEvent)
		return
	}
	glog.V(1).Infof("led: sent %d LEDs", len(colors))
}
