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

// Package device builds the gadget peripherals from a configuration,
// wiring each one to its event flags, shared state and worker.
package device

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/button"
	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/led"
	"github.com/aamcrae/gadget/power"
	"github.com/aamcrae/gadget/rotary"
	"github.com/aamcrae/gadget/worker"
)

// Device holds the single instance of each peripheral's state. Fields
// are nil for peripherals that are not configured.
type Device struct {
	Config  *Config
	Strip   *led.Strip
	LED     *led.Worker
	Encoder *rotary.Worker
	Button  *button.Worker
	Power   *power.Rail
	backend Backend
	workers []worker.Peripheral
}

// New creates the peripherals in the config using the backend.
// Any error here is a startup failure.
func New(c *Config, b Backend) (*Device, error) {
	d := &Device{Config: c, backend: b}
	if err := d.init(); err != nil {
		b.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) flags() *event.Flags {
	if d.Config.Poll > 0 {
		return event.NewPolled(d.Config.Poll)
	}
	return event.New()
}

func (d *Device) init() error {
	c := d.Config
	if c.Power != nil {
		out, err := d.backend.Output(c.Power.Pin)
		if err != nil {
			return fmt.Errorf("power pin %d: %v", c.Power.Pin, err)
		}
		if d.Power, err = power.New(out); err != nil {
			return fmt.Errorf("power pin %d: %v", c.Power.Pin, err)
		}
	}
	if c.LED != nil {
		tx, err := d.transport(c.LED)
		if err != nil {
			return fmt.Errorf("led: %v", err)
		}
		d.Strip = led.NewStrip(c.LED.Length, d.flags())
		d.LED = led.NewWorker(d.Strip, tx, c.Retry)
		d.workers = append(d.workers, d.LED)
	}
	if e := c.Encoder; e != nil {
		a, err := d.backend.Input(e.A, e.PollEdge)
		if err != nil {
			return fmt.Errorf("encoder pin %d: %v", e.A, err)
		}
		b, err := d.backend.Input(e.B, e.PollEdge)
		if err != nil {
			return fmt.Errorf("encoder pin %d: %v", e.B, err)
		}
		dec, err := rotary.NewDecoder(a, b, e.Mode, e.Min, e.Max)
		if err != nil {
			return fmt.Errorf("encoder: %v", err)
		}
		d.Encoder = rotary.NewWorker(dec, d.flags())
		d.workers = append(d.workers, d.Encoder)
	}
	if c.Button != nil {
		pin, err := d.backend.Input(c.Button.Pin, 0)
		if err != nil {
			return fmt.Errorf("button pin %d: %v", c.Button.Pin, err)
		}
		d.Button = button.NewWorker(pin, d.flags(), d.buttonToggled)
		d.workers = append(d.workers, d.Button)
	}
	return nil
}

func (d *Device) transport(c *LEDConfig) (apa102.Transport, error) {
	if c.Transport == "gpio" {
		clk, err := d.backend.Output(c.Clock)
		if err != nil {
			return nil, fmt.Errorf("clock pin %d: %v", c.Clock, err)
		}
		data, err := d.backend.Output(c.Data)
		if err != nil {
			return nil, fmt.Errorf("data pin %d: %v", c.Data, err)
		}
		return apa102.NewBitBang(clk, data), nil
	}
	s, err := d.backend.Stream(c)
	if err != nil {
		return nil, err
	}
	return apa102.NewSPI(s), nil
}

// buttonToggled switches the power rail to follow the button toggle.
func (d *Device) buttonToggled(on bool) {
	if d.Power == nil {
		return
	}
	s := power.Off
	if on {
		s = power.On
	}
	if err := d.Power.Set(s); err != nil {
		glog.Errorf("power: switching rail %s: %v", s, err)
	}
}

// Start runs a worker goroutine for each peripheral.
func (d *Device) Start() {
	for _, w := range d.workers {
		worker.Start(w, d.Config.Retry)
	}
	glog.Infof("%d peripheral workers started", len(d.workers))
}

// Close releases the backend resources.
func (d *Device) Close() {
	d.backend.Close()
}
