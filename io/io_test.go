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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Output = (*Gpio)(nil)
	_ Input  = (*Gpio)(nil)
	_ Output = (*PeriphPin)(nil)
	_ Input  = (*PeriphPin)(nil)
	_ Output = (*SimOutput)(nil)
	_ Input  = (*SimInput)(nil)
	_ Stream = (*SPIStream)(nil)
	_ Stream = (*SerialStream)(nil)
	_ Stream = (*SimStream)(nil)
)

func TestInterruptOneShot(t *testing.T) {
	in := NewSimInput(false)
	fired := 0
	in.Subscribe(func() { fired++ })

	// Not armed: edges are ignored.
	in.SetLevel(true)
	assert.Equal(t, 0, fired)

	require.NoError(t, in.EnableInterrupt())
	in.SetLevel(false)
	in.SetLevel(true)
	assert.Equal(t, 1, fired, "interrupt must disarm after firing")
	assert.False(t, in.Armed())

	require.NoError(t, in.EnableInterrupt())
	in.SetLevel(true) // no edge
	assert.Equal(t, 1, fired)
	in.SetLevel(false)
	assert.Equal(t, 2, fired)

	require.NoError(t, in.EnableInterrupt())
	require.NoError(t, in.DisableInterrupt())
	in.SetLevel(true)
	assert.Equal(t, 2, fired)
}

func TestSimRearmFailure(t *testing.T) {
	in := NewSimInput(false)
	in.FailRearm(2)
	assert.ErrorIs(t, in.EnableInterrupt(), ErrSimRearm)
	assert.ErrorIs(t, in.EnableInterrupt(), ErrSimRearm)
	assert.NoError(t, in.EnableInterrupt())
	assert.Equal(t, 3, in.ArmCalls())
	assert.True(t, in.Armed())
}

func TestSimOutput(t *testing.T) {
	o := NewSimOutput()
	var seen []bool
	o.OnChange(func(v bool) { seen = append(seen, v) })
	require.NoError(t, o.High())
	require.NoError(t, o.Toggle())
	require.NoError(t, o.Toggle())
	assert.True(t, o.Level())
	assert.Equal(t, []bool{true, false, true}, seen)
	assert.Equal(t, 3, o.Changes())
}

func TestSimStream(t *testing.T) {
	s := NewSimStream()
	require.NoError(t, s.Tx([]byte{1, 2}, nil))
	r := []byte{9}
	require.NoError(t, s.Tx([]byte{3}, r))
	assert.Equal(t, []byte{0}, r)
	d, n := s.Take()
	assert.Equal(t, []byte{1, 2, 3}, d)
	assert.Equal(t, 2, n)
}
