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

// Package state holds the per-peripheral request/result value shared
// between the worker goroutine and any number of readers.
package state

import (
	"errors"
	"sync"
)

// ErrPoisoned is returned once an Update has panicked while holding
// the lock. The value may be half-written, so it is never handed out again.
var ErrPoisoned = errors.New("state: poisoned by a panicking writer")

// Guarded is a reader/writer guarded value of type T.
type Guarded[T any] struct {
	mu       sync.RWMutex
	value    T
	poisoned bool
}

// New creates a Guarded holding the initial value.
func New[T any](v T) *Guarded[T] {
	return &Guarded[T]{value: v}
}

// View calls fn with the current value under the shared lock.
// fn must not retain references into the value after returning.
func (g *Guarded[T]) View(fn func(T)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.poisoned {
		return ErrPoisoned
	}
	fn(g.value)
	return nil
}

// Update calls fn with a pointer to the value under the exclusive lock.
// The error from fn is returned as is. If fn panics, the value is
// marked poisoned and the panic continues.
func (g *Guarded[T]) Update(fn func(*T) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.poisoned {
		return ErrPoisoned
	}
	ok := false
	defer func() {
		if !ok {
			g.poisoned = true
		}
	}()
	err := fn(&g.value)
	ok = true
	return err
}

// Poisoned reports whether a writer has panicked.
func (g *Guarded[T]) Poisoned() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.poisoned
}
