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

package apa102

import (
	"math/bits"

	"github.com/aamcrae/gadget/io"
)

// Transport sends an encoded frame to the strip.
type Transport interface {
	Send(frame []byte) error
}

// BitBang clocks frames out on two GPIO outputs.
// Each byte is sent least significant bit first: the data line is set
// to the bit, then the clock line is toggled twice.
type BitBang struct {
	Clock io.Output
	Data  io.Output
}

// NewBitBang returns a BitBang transport on the clock and data pins.
func NewBitBang(clock, data io.Output) *BitBang {
	return &BitBang{Clock: clock, Data: data}
}

func (bb *BitBang) Send(frame []byte) error {
	for _, b := range frame {
		if err := bb.sendByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (bb *BitBang) sendByte(b byte) error {
	for i := 0; i < 8; i++ {
		if err := bb.Data.Set(b&(1<<i) != 0); err != nil {
			return err
		}
		if err := bb.Clock.Toggle(); err != nil {
			return err
		}
		if err := bb.Clock.Toggle(); err != nil {
			return err
		}
	}
	return nil
}

// SPI sends frames through a synchronous byte stream. Byte streams
// shift most significant bit first, so each byte is bit reversed to put
// the same bit sequence on the wire as BitBang.
type SPI struct {
	Bus io.Stream
}

// NewSPI returns a transport writing frames to bus.
func NewSPI(bus io.Stream) *SPI {
	return &SPI{Bus: bus}
}

func (s *SPI) Send(frame []byte) error {
	w := make([]byte, len(frame))
	for i, b := range frame {
		w[i] = bits.Reverse8(b)
	}
	return s.Bus.Tx(w, nil)
}
