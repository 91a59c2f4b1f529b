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

// Interactive console for a running gadget

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/device"
)

var configFile = flag.String("config", "gadget.conf", "Configuration file")

func main() {
	flag.Parse()
	conf, err := device.ReadConfig(*configFile)
	if err != nil {
		glog.Fatalf("%s: %v", *configFile, err)
	}
	b, err := device.OpenBackend(conf.Backend)
	if err != nil {
		glog.Fatalf("%v", err)
	}
	d, err := device.New(conf, b)
	if err != nil {
		glog.Fatalf("%v", err)
	}
	defer d.Close()
	d.Start()
	shell := ishell.New()
	shell.SetPrompt("gadget> ")
	for _, cmd := range commands(d) {
		shell.AddCmd(cmd)
	}
	shell.Run()
}

// commands returns the console commands operating on d.
func commands(d *device.Device) []*ishell.Cmd {
	run := func(fn func(*device.Device, []string) error) func(*ishell.Context) {
		return func(c *ishell.Context) {
			if err := fn(d, c.Args); err != nil {
				c.Err(err)
			}
		}
	}
	return []*ishell.Cmd{
		{Name: "set", Help: "INDEX R G B BRIGHTNESS - set one LED", Func: run(setOne)},
		{Name: "all", Help: "R G B BRIGHTNESS - set every LED", Func: run(setAll)},
		{Name: "pos", Help: "N - set the encoder position", Func: run(setPosition)},
		{Name: "power", Help: "on|off|toggle - switch the power rail", Func: run(setPower)},
		{Name: "show", Aliases: []string{"s"}, Help: "show peripheral state", Func: func(c *ishell.Context) {
			show(c, d)
		}},
	}
}

func color(args []string) (apa102.Color, error) {
	var r, g, b uint8
	var br int
	if len(args) != 4 {
		return apa102.Color{}, fmt.Errorf("expected r g b brightness")
	}
	if _, err := fmt.Sscanf(strings.Join(args, " "), "%d %d %d %d", &r, &g, &b, &br); err != nil {
		return apa102.Color{}, err
	}
	bright, err := apa102.NewBrightness(br)
	if err != nil {
		return apa102.Color{}, err
	}
	return apa102.Color{Brightness: bright, Red: r, Green: g, Blue: b}, nil
}

func setOne(d *device.Device, args []string) error {
	if d.Strip == nil {
		return fmt.Errorf("no LED strip configured")
	}
	if len(args) == 0 {
		return fmt.Errorf("expected index")
	}
	var i int
	if _, err := fmt.Sscanf(args[0], "%d", &i); err != nil {
		return err
	}
	c, err := color(args[1:])
	if err != nil {
		return err
	}
	return d.Strip.SetOne(i, c)
}

func setAll(d *device.Device, args []string) error {
	if d.Strip == nil {
		return fmt.Errorf("no LED strip configured")
	}
	c, err := color(args)
	if err != nil {
		return err
	}
	n, err := d.Strip.Len()
	if err != nil {
		return err
	}
	leds := make([]apa102.Color, n)
	for i := range leds {
		leds[i] = c
	}
	return d.Strip.SetAll(leds)
}

func setPosition(d *device.Device, args []string) error {
	if d.Encoder == nil {
		return fmt.Errorf("no encoder configured")
	}
	var p int8
	if len(args) != 1 {
		return fmt.Errorf("expected position")
	}
	if _, err := fmt.Sscanf(args[0], "%d", &p); err != nil {
		return err
	}
	return d.Encoder.SetPosition(p)
}

func setPower(d *device.Device, args []string) error {
	if d.Power == nil {
		return fmt.Errorf("no power rail configured")
	}
	if len(args) != 1 {
		return fmt.Errorf("expected on, off or toggle")
	}
	switch args[0] {
	case "on":
		return d.Power.Wake()
	case "off":
		return d.Power.Sleep()
	case "toggle":
		return d.Power.Toggle()
	}
	return fmt.Errorf("%q: expected on, off or toggle", args[0])
}

func show(c *ishell.Context, d *device.Device) {
	if d.Strip != nil {
		leds, err := d.Strip.Colors()
		if err != nil {
			c.Printf("strip: %v\n", err)
		}
		for i, l := range leds {
			c.Printf("LED %d: r %d g %d b %d brightness %d\n", i, l.Red, l.Green, l.Blue, l.Brightness)
		}
	}
	if d.Encoder != nil {
		if s, err := d.Encoder.State(); err != nil {
			c.Printf("encoder: %v\n", err)
		} else {
			c.Printf("encoder: position %d [%d,%d], %s, %.1f RPM\n", s.Position, s.Min, s.Max, s.Direction(), s.RPM(d.Config.Encoder.Detents))
		}
	}
	if d.Button != nil {
		if on, err := d.Button.On(); err != nil {
			c.Printf("button: %v\n", err)
		} else {
			c.Printf("button: on %v\n", on)
		}
	}
	if d.Power != nil {
		c.Printf("power: %s\n", d.Power.State())
	}
}
