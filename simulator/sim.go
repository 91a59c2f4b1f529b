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

// Simulator program: runs the gadget on simulated pins, turning the
// encoder and pressing the button from a script, and renders the
// LEDs as a strip would display them.

package main

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/device"
	"github.com/aamcrae/gadget/io"
	"github.com/aamcrae/gadget/power"
	"github.com/aamcrae/gadget/rotary"
)

var leds = flag.Int("leds", 16, "Number of LEDs on the strip")
var turns = flag.Int("turns", 40, "Detents to turn the encoder each way")
var step = flag.Duration("step", 5*time.Millisecond, "Delay between encoder transitions")
var snapshot = flag.String("snapshot", "", "PNG file to write at the end of the script")
var port = flag.Int("port", 0, "If non-zero, serve gadget images on this port")

const (
	clockPin  = 45
	dataPin   = 42
	pinA      = 4
	pinB      = 5
	buttonPin = 0
	powerPin  = 46
)

// Encoder pin states (A | B<<1) in clockwise order.
var quadrature = []uint8{3, 2, 0, 1}

type Sim struct {
	dev   *device.Device
	back  *device.SimBackend
	wire  *Wire
	phase int
}

func main() {
	flag.Parse()
	s, err := NewSim(*leds)
	if err != nil {
		glog.Fatalf("simulator: %v", err)
	}
	defer s.dev.Close()
	if *port != 0 {
		go Server(*port, s)
	}
	s.Run(*turns, *step)
	glog.Infof("script complete, %d frames received", s.wire.Frames())
	if *snapshot != "" {
		if err := Render(s).SavePNG(*snapshot); err != nil {
			glog.Fatalf("%s: %v", *snapshot, err)
		}
		glog.Infof("wrote %s", *snapshot)
	}
	if *port != 0 {
		select {}
	}
}

// NewSim builds and starts a gadget with all peripherals on a simulated backend.
func NewSim(n int) (*Sim, error) {
	conf := &device.Config{
		Backend: "sim",
		Retry:   10 * time.Millisecond,
		LED:     &device.LEDConfig{Clock: clockPin, Data: dataPin, Length: n, Transport: "gpio"},
		Encoder: &device.EncoderConfig{A: pinA, B: pinB, Mode: rotary.Four3, Min: 0, Max: int8(n), Detents: 20},
		Button:  &device.ButtonConfig{Pin: buttonPin},
		Power:   &device.PowerConfig{Pin: powerPin},
	}
	b := device.NewSimBackend()
	d, err := device.New(conf, b)
	if err != nil {
		return nil, err
	}
	s := &Sim{dev: d, back: b, wire: NewWire(b.Out(clockPin), b.Out(dataPin), n)}
	d.Start()
	return s, nil
}

// Run presses the button to power up, then turns the encoder forward
// by detents and back by half as many.
func (s *Sim) Run(detents int, delay time.Duration) {
	s.press()
	s.meter()
	for _, sweep := range []struct{ dir, n int }{{1, detents}, {-1, detents / 2}} {
		for i := 0; i < sweep.n*4; i++ {
			s.transition(sweep.dir)
			s.meter()
			time.Sleep(delay)
		}
	}
	time.Sleep(50 * time.Millisecond)
}

// transition moves the encoder pins one quadrature step.
func (s *Sim) transition(dir int) {
	a, b := s.back.In(pinA), s.back.In(pinB)
	waitArmed(a, b)
	s.phase = (s.phase + dir + len(quadrature)) % len(quadrature)
	q := quadrature[s.phase]
	a.SetLevel(q&1 != 0)
	b.SetLevel(q&2 != 0)
}

// press pushes and releases the button.
func (s *Sim) press() {
	pin := s.back.In(buttonPin)
	waitArmed(pin)
	pin.SetLevel(false)
	waitArmed(pin)
	pin.SetLevel(true)
	waitArmed(pin)
}

// waitArmed waits until the worker has serviced the last edge.
func waitArmed(pins ...*io.SimInput) {
	for {
		armed := true
		for _, p := range pins {
			armed = armed && p.Armed()
		}
		if armed {
			return
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// meter lights the strip up to the encoder position, while the power
// rail is on.
func (s *Sim) meter() {
	st, err := s.dev.Encoder.State()
	if err != nil {
		glog.Fatalf("encoder: %v", err)
	}
	n := s.dev.Strip.Capacity()
	colors := make([]apa102.Color, n)
	if s.dev.Power.State() == power.On {
		for i := 0; i < int(st.Position) && i < n; i++ {
			red := uint8(255 * i / n)
			colors[i] = apa102.Color{Brightness: apa102.Max, Red: red, Green: 255 - red}
		}
	}
	if err := s.dev.Strip.SetAll(colors); err != nil {
		glog.Errorf("strip: %v", err)
	}
}
