/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package rx

import "sync"

// Disposable releases a subscription or resource. Dispose must be
// idempotent and safe to call from any goroutine.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to the Disposable interface.
// It does not guard against repeated calls; use NewDisposable for that.
type DisposableFunc func()

// Dispose satisfies the Disposable interface.
func (f DisposableFunc) Dispose() {
	if f != nil {
		f()
	}
}

// Nop is a Disposable that does nothing.
var Nop Disposable = DisposableFunc(nil)

// NewDisposable returns a Disposable that runs fn at most once.
func NewDisposable(fn func()) Disposable {
	var once sync.Once
	return DisposableFunc(func() {
		if fn != nil {
			once.Do(fn)
		}
	})
}

// Composite disposes a group of disposables together.
// The zero value is ready to use.
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewComposite returns a Composite holding ds.
func NewComposite(ds ...Disposable) *Composite {
	c := &Composite{}
	for _, d := range ds {
		c.Add(d)
	}
	return c
}

// Add appends d to the group. If the group is already disposed, d is
// disposed immediately.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Len returns the number of disposables currently held.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Disposed reports whether Dispose has been called.
func (c *Composite) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose disposes every held disposable in insertion order.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}
