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

package rotary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/gadget/io"
)

// Pin states are pinA | pinB<<1. Counting up runs 3, 2, 0, 1, 3.
var up = []uint8{2, 0, 1, 3}

type pins struct {
	a, b *io.SimInput
}

func newPins() *pins {
	// Encoders rest with both pins high at a detent.
	return &pins{a: io.NewSimInput(true), b: io.NewSimInput(true)}
}

func (p *pins) set(s uint8) {
	p.a.SetLevel(s&1 != 0)
	p.b.SetLevel(s&2 != 0)
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(50 * time.Millisecond)
	return c.t
}

func newDecoder(t *testing.T, p *pins, mode Mode, min, max int8) *Decoder {
	d, err := NewDecoder(p.a, p.b, mode, min, max)
	require.NoError(t, err)
	c := &clock{t: time.Unix(1000, 0)}
	d.now = c.now
	return d
}

// step drives n raw transitions, up if n > 0, down otherwise.
func step(t *testing.T, d *Decoder, p *pins, n int) {
	for ; n > 0; n-- {
		cur := d.prev
		for i, s := range up {
			if up[(i+3)%4] == cur {
				p.set(s)
				break
			}
		}
		changed, err := d.Update()
		require.NoError(t, err)
		require.True(t, changed)
	}
	for ; n < 0; n++ {
		cur := d.prev
		for i, s := range up {
			if s == cur {
				p.set(up[(i+3)%4])
				break
			}
		}
		changed, err := d.Update()
		require.NoError(t, err)
		require.True(t, changed)
	}
}

func TestTable(t *testing.T) {
	// Written as (A,B) levels.
	assert.Equal(t, int8(-1), direction[0b00|0b10<<2], "prev A0B0, cur A0B1")
	assert.Equal(t, int8(1), direction[0b10|0b00<<2], "prev A0B1, cur A0B0")
	for s := 0; s < 4; s++ {
		assert.Equal(t, int8(0), direction[s|s<<2])
	}
	// Both pins changing is ignored.
	for _, pair := range [][2]int{{0, 3}, {3, 0}, {1, 2}, {2, 1}} {
		assert.Equal(t, int8(0), direction[pair[0]|pair[1]<<2])
	}
}

func TestNoChange(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Four3, -100, 100)
	before := d.State()
	changed, err := d.Update()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, d.State())
}

func TestModes(t *testing.T) {
	tests := []struct {
		mode  Mode
		steps int
		want  int8
	}{
		{Four3, 4, 1},
		{Four0, 8, 2},
		{Two3, 4, 2},
		{Two3, 1, 0},
		{Four3, 3, 0},
		{Two3, -2, -1},
		{Four3, -4, -1},
	}
	for _, tc := range tests {
		p := newPins()
		d := newDecoder(t, p, tc.mode, -100, 100)
		step(t, d, p, tc.steps)
		assert.Equal(t, tc.want, d.State().Position, "%s %d steps", tc.mode, tc.steps)
		assert.Equal(t, int16(tc.steps), d.State().Raw)
	}
}

func TestSkippedTransition(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -100, 100)
	p.set(0) // both pins change from 3
	changed, err := d.Update()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int16(0), d.State().Raw)
}

func TestWrapAtMax(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -2, 2)
	step(t, d, p, 5)
	assert.Equal(t, int8(2), d.State().Position)
	step(t, d, p, 1)
	assert.Equal(t, int8(-2), d.State().Position)
	assert.Equal(t, int16(-4), d.State().Raw)
}

func TestWrapAtMin(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -2, 2)
	step(t, d, p, -4)
	assert.Equal(t, int8(-2), d.State().Position)
	step(t, d, p, -1)
	assert.Equal(t, int8(2), d.State().Position)
	assert.Equal(t, int16(4), d.State().Raw)
}

func TestDirectionAndRPM(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -100, 100)
	assert.Equal(t, NoRotation, d.State().Direction())
	step(t, d, p, 2)
	st := d.State()
	assert.Equal(t, CounterClockwise, st.Direction())
	assert.Equal(t, 50*time.Millisecond, st.Duration())
	assert.InDelta(t, 60.0, st.RPM(20), 0.001)
	step(t, d, p, -2)
	assert.Equal(t, Clockwise, d.State().Direction())
}

func TestRPMZero(t *testing.T) {
	assert.Equal(t, 0.0, State{}.RPM(20))
	now := time.Now()
	assert.Equal(t, 0.0, State{Changed: now, PrevChanged: now.Add(time.Second)}.RPM(20))
}

func TestSetPosition(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Four3, -10, 10)
	require.NoError(t, d.SetPosition(5))
	assert.Equal(t, int8(5), d.State().Position)
	assert.Equal(t, int16(20), d.State().Raw)
	assert.ErrorIs(t, d.SetPosition(11), ErrRange)
	assert.Equal(t, int8(5), d.State().Position)
}

func TestInitialPosition(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, 0, 20)
	st := d.State()
	assert.Equal(t, int8(10), st.Position)
	assert.Equal(t, NoRotation, st.Direction())
	_, err := NewDecoder(p.a, p.b, Two3, 5, 5)
	assert.ErrorIs(t, err, ErrRange)
	_, err = NewDecoder(p.a, p.b, Mode(9), 0, 5)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Four3, Four0, Two3} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("three")
	assert.Error(t, err)
}
