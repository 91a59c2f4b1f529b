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

	"github.com/tarm/serial"
)

// SerialStream is a write-only Stream over a serial port, for
// peripherals reached through a USB/serial to SPI bridge.
type SerialStream struct {
	port *serial.Port
}

// OpenSerial opens the serial device at the baud rate given.
func OpenSerial(name string, baud int) (*SerialStream, error) {
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return &SerialStream{port: p}, nil
}

// Tx writes all of w. Nothing is read back, so r is zeroed.
func (s *SerialStream) Tx(w, r []byte) error {
	for len(w) > 0 {
		n, err := s.port.Write(w)
		if err != nil {
			return err
		}
		w = w[n:]
	}
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (s *SerialStream) Transfer(b byte) (byte, error) {
	return 0, s.Tx([]byte{b}, nil)
}

func (s *SerialStream) Close() error {
	return s.port.Close()
}
