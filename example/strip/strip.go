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

// Program to set the colour of every LED on a strip

package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/io"
)

var clock = flag.Int("clock", 45, "GPIO pin for the strip clock")
var data = flag.Int("data", 42, "GPIO pin for the strip data")
var length = flag.Int("length", 7, "Number of LEDs")
var color = flag.Uint("color", 0x202020, "Colour as 0xRRGGBB")
var brightness = flag.Int("brightness", 8, "Brightness, 0 - 31")

func main() {
	flag.Parse()
	br, err := apa102.NewBrightness(*brightness)
	if err != nil {
		glog.Fatalf("%v", err)
	}
	clk, err := io.OutputPin(*clock)
	if err != nil {
		glog.Fatalf("Pin %d: %v", *clock, err)
	}
	defer clk.Close()
	d, err := io.OutputPin(*data)
	if err != nil {
		glog.Fatalf("Pin %d: %v", *data, err)
	}
	defer d.Close()
	c := apa102.Color{Brightness: br, Red: uint8(*color >> 16), Green: uint8(*color >> 8), Blue: uint8(*color)}
	leds := make([]apa102.Color, *length)
	for i := range leds {
		leds[i] = c
	}
	if err := apa102.NewBitBang(clk, d).Send(apa102.Encode(leds)); err != nil {
		glog.Fatalf("send: %v", err)
	}
	glog.Infof("%d LEDs set to %#06x, brightness %d", *length, *color, br)
}
