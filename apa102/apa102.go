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

// Package apa102 encodes colours for an APA102 style clocked LED strip.
//
// A frame is a 32 bit start frame of zeros, one 4 byte frame per LED
// (0b111 + 5 bit brightness, then blue, green, red), and an end frame of
// one byte per 16 LEDs, which supplies the extra clock edges the
// strip needs to push data to the end of the chain.
package apa102

import (
	"errors"
	"fmt"
)

// Brightness is the 5 bit global brightness of one LED.
type Brightness uint8

const (
	Off Brightness = 0
	Min Brightness = 0
	Max Brightness = 0b11111
)

// ErrBrightness is returned for brightness values above Max.
var ErrBrightness = errors.New("apa102: brightness greater than 31")

// NewBrightness validates v as a brightness.
func NewBrightness(v int) (Brightness, error) {
	if v < 0 || v > int(Max) {
		return 0, fmt.Errorf("%d: %w", v, ErrBrightness)
	}
	return Brightness(v), nil
}

// Color is the state of one LED.
type Color struct {
	Brightness Brightness
	Red        uint8
	Green      uint8
	Blue       uint8
}

const (
	startFrameLen = 4
	ledHeader     = 0b11100000
	endFrameByte  = 0x01
	ledsPerEnd    = 16
)

// FrameLen returns the number of bytes Encode produces for n LEDs.
func FrameLen(n int) int {
	return startFrameLen + 4*n + endLen(n)
}

func endLen(n int) int {
	return (n + ledsPerEnd - 1) / ledsPerEnd
}

// Encode returns the byte frame for the LEDs, in order.
func Encode(leds []Color) []byte {
	b := make([]byte, startFrameLen, FrameLen(len(leds)))
	for _, c := range leds {
		b = append(b, ledHeader|byte(c.Brightness&Max), c.Blue, c.Green, c.Red)
	}
	for i := 0; i < endLen(len(leds)); i++ {
		b = append(b, endFrameByte)
	}
	return b
}

// ErrFrame is returned by Decode for a malformed frame.
var ErrFrame = errors.New("apa102: malformed frame")

// Decode recovers the colours of n LEDs from a frame, as a strip would
// see it.
func Decode(frame []byte, n int) ([]Color, error) {
	if len(frame) != FrameLen(n) {
		return nil, fmt.Errorf("%d bytes for %d LEDs: %w", len(frame), n, ErrFrame)
	}
	for _, b := range frame[:startFrameLen] {
		if b != 0 {
			return nil, fmt.Errorf("start frame: %w", ErrFrame)
		}
	}
	leds := make([]Color, n)
	for i := range leds {
		f := frame[startFrameLen+4*i:]
		if f[0]&ledHeader != ledHeader {
			return nil, fmt.Errorf("LED %d header %#02x: %w", i, f[0], ErrFrame)
		}
		leds[i] = Color{Brightness: Brightness(f[0]) & Max, Blue: f[1], Green: f[2], Red: f[3]}
	}
	return leds, nil
}
