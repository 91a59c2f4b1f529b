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

package led

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aamcrae/gadget/apa102"
	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/io"
	"github.com/aamcrae/gadget/worker"
)

var (
	red  = apa102.Color{Brightness: apa102.Max, Red: 255}
	blue = apa102.Color{Brightness: 10, Blue: 200}
)

func TestSetOne(t *testing.T) {
	s := NewStrip(3, event.New())
	require.NoError(t, s.SetOne(1, red))
	assert.True(t, s.Flags().IsSet(UpdateEvent))
	c, err := s.Colors()
	require.NoError(t, err)
	assert.Equal(t, []apa102.Color{{}, red, {}}, c)
}

func TestSetOneOutOfRange(t *testing.T) {
	s := NewStrip(3, event.New())
	for _, i := range []int{3, 4, -1} {
		err := s.SetOne(i, red)
		assert.ErrorIs(t, err, ErrOutOfRange, "index %d", i)
	}
	assert.False(t, s.Flags().IsSet(UpdateEvent))
	c, err := s.Colors()
	require.NoError(t, err)
	assert.Equal(t, make([]apa102.Color, 3), c)
}

func TestSetAll(t *testing.T) {
	s := NewStrip(3, event.New())
	require.NoError(t, s.SetAll([]apa102.Color{red, blue, red}))
	c, err := s.Colors()
	require.NoError(t, err)
	assert.Equal(t, []apa102.Color{red, blue, red}, c)

	err = s.SetAll([]apa102.Color{red, red, red, red})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	c, err = s.Colors()
	require.NoError(t, err)
	assert.Equal(t, []apa102.Color{red, blue, red}, c)
}

// A shortened request rejects positions past its new length, even
// though the strip is physically longer.
func TestSetAllShrinks(t *testing.T) {
	s := NewStrip(4, event.New())
	require.NoError(t, s.SetAll([]apa102.Color{blue, blue}))
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, s.Capacity())
	assert.ErrorIs(t, s.SetOne(2, red), ErrOutOfRange)
	assert.ErrorIs(t, s.SetAll(make([]apa102.Color, 3)), ErrCapacityExceeded)
}

func TestColorsIsCopy(t *testing.T) {
	s := NewStrip(2, event.New())
	c, err := s.Colors()
	require.NoError(t, err)
	c[0] = red
	c2, err := s.Colors()
	require.NoError(t, err)
	assert.Equal(t, apa102.Color{}, c2[0])
}

type recorder struct {
	frames [][]byte
	fail   int
}

func (r *recorder) Send(f []byte) error {
	if r.fail > 0 {
		r.fail--
		return errors.New("transport busy")
	}
	r.frames = append(r.frames, f)
	return nil
}

func TestWorker(t *testing.T) {
	s := NewStrip(1, event.New())
	rec := &recorder{}
	w := NewWorker(s, rec, time.Millisecond)

	// Initial state is written on the first pass.
	worker.Step(w, time.Millisecond)
	require.Len(t, rec.frames, 1)
	assert.Equal(t, []byte{0, 0, 0, 0, 0xE0, 0, 0, 0, 0x01}, rec.frames[0])

	require.NoError(t, s.SetOne(0, apa102.Color{Brightness: 31, Red: 10, Green: 20, Blue: 30}))
	worker.Step(w, time.Millisecond)
	require.Len(t, rec.frames, 2)
	assert.Equal(t, []byte{0, 0, 0, 0, 0xFF, 30, 20, 10, 0x01}, rec.frames[1])
}

func TestWorkerRetry(t *testing.T) {
	s := NewStrip(2, event.New())
	rec := &recorder{fail: 1}
	w := NewWorker(s, rec, time.Millisecond)
	worker.Step(w, time.Millisecond)
	assert.Empty(t, rec.frames)
	assert.True(t, s.Flags().IsSet(UpdateEvent), "failed send must be retried")
	worker.Step(w, time.Millisecond)
	assert.Len(t, rec.frames, 1)
}

// Multiple requests between two passes are sent once, with the latest state.
func TestWorkerCoalesce(t *testing.T) {
	s := NewStrip(1, event.New())
	rec := &recorder{}
	w := NewWorker(s, rec, time.Millisecond)
	require.NoError(t, s.SetOne(0, red))
	require.NoError(t, s.SetOne(0, blue))
	worker.Step(w, time.Millisecond)
	require.Len(t, rec.frames, 1)
	assert.Equal(t, apa102.Encode([]apa102.Color{blue}), rec.frames[0])
	assert.False(t, s.Flags().IsSet(UpdateEvent))
}

func TestWorkerBitBang(t *testing.T) {
	clk, data := io.NewSimOutput(), io.NewSimOutput()
	s := NewStrip(2, event.New())
	w := NewWorker(s, apa102.NewBitBang(clk, data), time.Millisecond)
	worker.Step(w, time.Millisecond)
	assert.Equal(t, apa102.FrameLen(2)*8*2, clk.Changes())
}
