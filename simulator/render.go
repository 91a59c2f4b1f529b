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

package main

import (
	"fmt"
	"math"
	"net/http"

	"github.com/fogleman/gg"
	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/power"
)

const (
	ledSpacing = 40
	ledRadius  = 15
	dialRadius = 80
	height     = 300
)

// Server serves the rendered gadget as /gadget.png.
func Server(port int, s *Sim) {
	http.Handle("/gadget.png", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if err := Render(s).EncodePNG(w); err != nil {
			glog.Errorf("Error writing image: %v", err)
		}
	}))
	url := fmt.Sprintf(":%d", port)
	glog.Infof("Starting server on %s", url)
	server := &http.Server{Addr: url}
	glog.Fatal(server.ListenAndServe())
}

// Render draws the strip as received on the wire, the encoder dial
// and the power rail.
func Render(s *Sim) *gg.Context {
	leds := s.wire.LEDs()
	width := max(len(leds)*ledSpacing+ledSpacing, 3*dialRadius)
	c := gg.NewContext(width, height)
	c.SetRGB(0.1, 0.1, 0.1)
	c.Clear()
	for i, l := range leds {
		drawLED(c, l, float64(ledSpacing*(i+1)), ledSpacing)
	}
	st, err := s.dev.Encoder.State()
	if err != nil {
		glog.Errorf("encoder: %v", err)
		return c
	}
	midX, midY := float64(width)/2, float64(height)/2+ledSpacing/2
	c.SetRGB(0.4, 0.4, 0.4)
	c.DrawCircle(midX, midY, dialRadius)
	c.Fill()
	// The pointer sweeps 270 degrees across the range.
	f := float64(int(st.Position)-int(st.Min)) / float64(int(st.Max)-int(st.Min))
	radians := (0.75 + 1.5*f) * math.Pi
	c.SetRGB(1, 1, 1)
	c.SetLineWidth(4)
	c.DrawLine(midX, midY, midX+(dialRadius-10)*math.Cos(radians), midY+(dialRadius-10)*math.Sin(radians))
	c.Stroke()
	c.DrawStringAnchored(fmt.Sprintf("%d %s", st.Position, st.Direction()), midX, midY+dialRadius+15, 0.5, 0.5)
	if s.dev.Power.State() == power.On {
		c.SetRGB(0, 1, 0)
	} else {
		c.SetRGB(0.3, 0, 0)
	}
	c.DrawCircle(float64(width-20), float64(height-20), 8)
	c.Fill()
	return c
}

// drawLED draws one LED, scaling the colour by its brightness.
func drawLED(c *gg.Context, l apa102.Color, x, y float64) {
	scale := float64(l.Brightness) / float64(apa102.Max) / 255
	c.SetRGB(float64(l.Red)*scale, float64(l.Green)*scale, float64(l.Blue)*scale)
	c.DrawCircle(x, y, ledRadius)
	c.Fill()
	c.SetRGB(0.6, 0.6, 0.6)
	c.SetLineWidth(1)
	c.DrawCircle(x, y, ledRadius)
	c.Stroke()
}
