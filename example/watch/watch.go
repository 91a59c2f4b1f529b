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

// Program to demonstrate how to watch interrupt driven inputs

package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/io"
)

var gpio = flag.Int("gpio", 4, "GPIO input pin")

const edge event.Mask = 1 << 0

func main() {
	flag.Parse()
	p, err := io.InputPin(*gpio)
	if err != nil {
		glog.Fatalf("Pin %d: %v", *gpio, err)
	}
	defer p.Close()
	flags := event.New()
	p.Subscribe(func() { flags.Set(edge) })
	for {
		// The interrupt is disabled each time it fires.
		if err := p.EnableInterrupt(); err != nil {
			glog.Fatalf("Pin %d: enable interrupt: %v", *gpio, err)
		}
		flags.WaitForAny()
		v, err := p.Read()
		if err != nil {
			glog.Fatalf("Pin %d: Read: %v", *gpio, err)
		}
		glog.Infof("pin %d = %v", *gpio, v)
	}
}
