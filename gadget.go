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

// Gadget program

package main

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/aamcrae/gadget/device"
)

var configFile = flag.String("config", "gadget.conf", "Configuration file")
var backend = flag.String("backend", "", "Override the configured backend (sysfs, periph or sim)")
var status = flag.Duration("status", 0, "If non-zero, interval for logging peripheral state")

func main() {
	flag.Parse()
	conf, err := device.ReadConfig(*configFile)
	if err != nil {
		glog.Fatalf("%s: %v", *configFile, err)
	}
	if *backend != "" {
		conf.Backend = *backend
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
	if *status == 0 {
		select {}
	}
	for range time.Tick(*status) {
		report(d)
	}
}

func report(d *device.Device) {
	if d.Encoder != nil {
		if s, err := d.Encoder.State(); err != nil {
			glog.Errorf("encoder: %v", err)
		} else {
			glog.Infof("encoder: position %d, %s, %.1f RPM", s.Position, s.Direction(), s.RPM(d.Config.Encoder.Detents))
		}
	}
	if d.Button != nil {
		if on, err := d.Button.On(); err != nil {
			glog.Errorf("button: %v", err)
		} else {
			glog.Infof("button: on %v", on)
		}
	}
	if d.Power != nil {
		glog.Infof("power: %s", d.Power.State())
	}
}
