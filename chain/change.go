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

package chain

import (
	"dirpx.dev/obx/apis"
)

// ObservedChange names a sender and the chain that leads from it to a
// value. The value is resolved on demand, never captured at emission time.
type ObservedChange[S, V any] struct {
	Sender S
	Chain  apis.Chain

	reader *Reader
}

// NewObservedChange returns the change record for sender and c. Values
// are resolved with the process configuration.
func NewObservedChange[S, V any](sender S, c apis.Chain) ObservedChange[S, V] {
	return ObservedChange[S, V]{Sender: sender, Chain: c}
}

// NewObservedChangeWith is like NewObservedChange but resolves values
// through r.
func NewObservedChangeWith[S, V any](r *Reader, sender S, c apis.Chain) ObservedChange[S, V] {
	return ObservedChange[S, V]{Sender: sender, Chain: c, reader: r}
}

func (c ObservedChange[S, V]) r() *Reader {
	if c.reader == nil {
		return std()
	}
	return c.reader
}

// Path returns the canonical path of the chain.
func (c ObservedChange[S, V]) Path() string { return c.Chain.String() }

// TryGetValue resolves the current value. It reports false on a broken
// chain or a value that is not a V.
func (c ObservedChange[S, V]) TryGetValue() (V, bool) {
	v, err := c.GetValue()
	return v, err == nil
}

// GetValue resolves the current value. A broken chain yields a
// *ResolveError naming the path and segment.
func (c ObservedChange[S, V]) GetValue() (V, error) {
	var zero V
	raw, err := c.r().Resolve(c.Sender, c.Chain)
	if err != nil {
		return zero, err
	}
	return As[V](raw)
}

// SetValueTo resolves the current value and writes it to the same path on
// target.
func (c ObservedChange[S, V]) SetValueTo(target any) error {
	v, err := c.GetValue()
	if err != nil {
		return err
	}
	return c.r().SetValue(target, c.Chain, v)
}
