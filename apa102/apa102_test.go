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
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/gadget/io"
)

func TestEncodeSingle(t *testing.T) {
	got := Encode([]Color{{Brightness: 31, Red: 10, Green: 20, Blue: 30}})
	assert.Equal(t, []byte{0, 0, 0, 0, 0xFF, 30, 20, 10, 0x01}, got)
}

func TestEncodeLengths(t *testing.T) {
	tests := []struct {
		leds int
		end  int
	}{
		{0, 0},
		{1, 1},
		{7, 1},
		{16, 1},
		{17, 2},
		{32, 2},
		{33, 3},
	}
	for _, tc := range tests {
		f := Encode(make([]Color, tc.leds))
		require.Len(t, f, FrameLen(tc.leds))
		assert.Equal(t, 4+4*tc.leds+tc.end, len(f), "leds %d", tc.leds)
		assert.Equal(t, []byte{0, 0, 0, 0}, f[:4])
		for _, b := range f[4+4*tc.leds:] {
			assert.Equal(t, byte(endFrameByte), b)
		}
	}
}

func TestEncodeOrder(t *testing.T) {
	f := Encode([]Color{
		{Brightness: 1, Red: 0x11, Green: 0x12, Blue: 0x13},
		{Brightness: 0, Red: 0x21, Green: 0x22, Blue: 0x23},
	})
	assert.Equal(t, []byte{0xE1, 0x13, 0x12, 0x11, 0xE0, 0x23, 0x22, 0x21}, f[4:12])
}

func TestBrightness(t *testing.T) {
	b, err := NewBrightness(31)
	require.NoError(t, err)
	assert.Equal(t, Max, b)
	_, err = NewBrightness(32)
	assert.ErrorIs(t, err, ErrBrightness)
	_, err = NewBrightness(-1)
	assert.ErrorIs(t, err, ErrBrightness)
}

// capture samples the data line on each rising clock edge.
func capture(clk, data *io.SimOutput) *[]bool {
	var bitsOut []bool
	clk.OnChange(func(v bool) {
		if v {
			bitsOut = append(bitsOut, data.Level())
		}
	})
	return &bitsOut
}

func TestBitBangLSBFirst(t *testing.T) {
	clk, data := io.NewSimOutput(), io.NewSimOutput()
	got := capture(clk, data)
	bb := NewBitBang(clk, data)
	require.NoError(t, bb.Send([]byte{0x01, 0xA0}))
	want := []bool{
		true, false, false, false, false, false, false, false,
		false, false, false, false, false, true, false, true,
	}
	assert.Equal(t, want, *got)
	// Two toggles per bit, leaving the clock low.
	assert.Equal(t, 32, clk.Changes())
	assert.False(t, clk.Level())
}

func TestBitBangError(t *testing.T) {
	clk, data := io.NewSimOutput(), io.NewSimOutput()
	bad := errors.New("bus fault")
	data.Fail(bad)
	err := NewBitBang(clk, data).Send([]byte{0})
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 0, clk.Changes())
}

func TestSPIBitOrder(t *testing.T) {
	bus := io.NewSimStream()
	frame := Encode([]Color{{Brightness: 3, Red: 1, Green: 2, Blue: 4}})
	require.NoError(t, NewSPI(bus).Send(frame))
	got, n := bus.Take()
	assert.Equal(t, 1, n)
	require.Len(t, got, len(frame))
	for i := range frame {
		assert.Equal(t, frame[i], bits.Reverse8(got[i]))
	}
}

func TestDecode(t *testing.T) {
	leds := make([]Color, 17)
	for i := range leds {
		leds[i] = Color{Brightness: Brightness(i), Red: uint8(i), Green: uint8(2 * i), Blue: uint8(3 * i)}
	}
	got, err := Decode(Encode(leds), len(leds))
	require.NoError(t, err)
	assert.Equal(t, leds, got)

	_, err = Decode(Encode(leds), 16)
	assert.ErrorIs(t, err, ErrFrame)
	bad := Encode(leds[:1])
	bad[4] = 0x1F
	_, err = Decode(bad, 1)
	assert.ErrorIs(t, err, ErrFrame)
	bad = Encode(leds[:1])
	bad[0] = 1
	_, err = Decode(bad, 1)
	assert.ErrorIs(t, err, ErrFrame)
}
