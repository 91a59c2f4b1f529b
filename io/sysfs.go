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

package io

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sys/unix"
)

// sysfs is a GPIO class directory, normally /sys/class/gpio.
type sysfs struct {
	root string
	// If set, wait for exported files to become writable. When not
	// running as root, udev changes the group permissions on the
	// exported files some time after the export.
	verify  bool
	timeout time.Duration
}

var gpioFS = &sysfs{root: "/sys/class/gpio", verify: os.Geteuid() != 0, timeout: 2 * time.Second}

func (s *sysfs) attr(gpio int, name string) string {
	return filepath.Join(s.root, fmt.Sprintf("gpio%d", gpio), name)
}

// export makes the pin's attributes available, unless they already are.
func (s *sysfs) export(gpio int) error {
	value := s.attr(gpio, "value")
	if unix.Access(value, unix.W_OK|unix.R_OK) == nil {
		return nil
	}
	if err := writeString(filepath.Join(s.root, "export"), fmt.Sprint(gpio)); err != nil {
		return fmt.Errorf("gpio%d: export: %v", gpio, err)
	}
	if s.verify {
		return s.waitWritable(value)
	}
	return nil
}

func (s *sysfs) unexport(gpio int) error {
	return writeString(filepath.Join(s.root, "unexport"), fmt.Sprint(gpio))
}

// set writes an attribute of an exported pin.
func (s *sysfs) set(gpio int, name, v string) error {
	if err := writeString(s.attr(gpio, name), v); err != nil {
		return fmt.Errorf("gpio%d: %s: %v", gpio, name, err)
	}
	return nil
}

func (s *sysfs) waitWritable(f string) error {
	sl := time.Millisecond
	for t := time.Duration(0); t < s.timeout; t += sl {
		if unix.Access(f, unix.W_OK) == nil {
			glog.V(2).Infof("%s: writable after %s", f, t)
			return nil
		}
		time.Sleep(sl)
	}
	return fmt.Errorf("%s: not writable", f)
}

func writeString(fname, s string) error {
	f, err := os.OpenFile(fname, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(s)
	return err
}
