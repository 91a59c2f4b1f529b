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

	"github.com/aamcrae/gadget/event"
	"github.com/aamcrae/gadget/worker"
)

func TestWorkerPublishes(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Four3, -100, 100)
	w := NewWorker(d, event.New())

	// Each Step re-arms the pins and services one wakeup.
	worker.Rearm(w, time.Millisecond)
	assert.True(t, p.a.Armed())
	assert.True(t, p.b.Armed())
	for _, s := range up {
		p.set(s)
		assert.True(t, w.Flags().IsSet(PinChanged))
		worker.Step(w, time.Millisecond)
	}
	st, err := w.State()
	require.NoError(t, err)
	assert.Equal(t, int8(1), st.Position)
	assert.Equal(t, int16(4), st.Raw)
}

// Pin changes while the worker is busy coalesce into one wakeup, and
// only the net sampled change is applied.
func TestWorkerCoalesced(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -100, 100)
	w := NewWorker(d, event.New())
	worker.Rearm(w, time.Millisecond)
	p.set(2)
	p.set(0)
	worker.Step(w, time.Millisecond)
	st, err := w.State()
	require.NoError(t, err)
	// 3 -> 0 looks like both pins changed, so it is ignored.
	assert.Equal(t, int16(0), st.Raw)
}

func TestWorkerRearmRetry(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -100, 100)
	w := NewWorker(d, event.New())
	p.b.FailRearm(2)
	w.Flags().Set(PinChanged)
	worker.Step(w, time.Millisecond)
	assert.Equal(t, 3, p.b.ArmCalls())
	assert.True(t, p.b.Armed())
}

func TestWorkerSetPosition(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Two3, -10, 10)
	w := NewWorker(d, event.New())
	require.NoError(t, w.SetPosition(7))
	assert.ErrorIs(t, w.SetPosition(11), ErrRange)
	worker.Step(w, time.Millisecond)
	st, err := w.State()
	require.NoError(t, err)
	assert.Equal(t, int8(7), st.Position)
	assert.Equal(t, int16(14), st.Raw)
}

// Position requests from other goroutines are validated without
// touching the decoder, which the running worker owns.
func TestWorkerSetPositionWhileRunning(t *testing.T) {
	p := newPins()
	d := newDecoder(t, p, Four3, -10, 10)
	w := NewWorker(d, event.New())
	worker.Start(w, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			assert.NoError(t, w.SetPosition(int8(i%21-10)))
			assert.ErrorIs(t, w.SetPosition(-11), ErrRange)
			assert.ErrorIs(t, w.SetPosition(11), ErrRange)
		}
	}()
	<-done
	require.NoError(t, w.SetPosition(5))
	assert.Eventually(t, func() bool {
		st, err := w.State()
		return err == nil && st.Position == 5
	}, time.Second, time.Millisecond)
}
