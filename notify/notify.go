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

// Package notify gives host types the notification capabilities the
// engine discovers: embed Source for dual-channel notification or
// ChangedSource for post-change only, and assign observed fields through
// Set.
//
//	type Person struct {
//		notify.Source
//		name string
//	}
//
//	func (p *Person) Name() string { return p.name }
//	func (p *Person) SetName(v string) { notify.Set(&p.Source, p, &p.name, v, "Name") }
//
// An empty property name announces that every property changed.
package notify

import (
	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/rx"
)

// Raiser publishes post-change notifications.
type Raiser interface {
	RaiseChanged(sender any, name string)
}

// DualRaiser publishes pre- and post-change notifications.
type DualRaiser interface {
	Raiser
	RaiseChanging(sender any, name string)
}

// Source is an embeddable apis.DualNotifier. The zero value is ready to
// use; a Source must not be copied after first use.
type Source struct {
	changing rx.Subject[apis.PropertyChange]
	changed  rx.Subject[apis.PropertyChange]
}

// Ensure Source implements apis.DualNotifier and DualRaiser.
var (
	_ apis.DualNotifier = (*Source)(nil)
	_ DualRaiser        = (*Source)(nil)
)

// Changing returns the pre-change stream.
func (s *Source) Changing() rx.Observable[apis.PropertyChange] { return &s.changing }

// Changed returns the post-change stream.
func (s *Source) Changed() rx.Observable[apis.PropertyChange] { return &s.changed }

// RaiseChanging announces that name on sender is about to change.
func (s *Source) RaiseChanging(sender any, name string) {
	s.changing.OnNext(apis.PropertyChange{Sender: sender, Name: name})
}

// RaiseChanged announces that name on sender changed.
func (s *Source) RaiseChanged(sender any, name string) {
	s.changed.OnNext(apis.PropertyChange{Sender: sender, Name: name})
}

// ChangedSource is an embeddable apis.Notifier with post-change
// notification only. The zero value is ready to use.
type ChangedSource struct {
	changed rx.Subject[apis.PropertyChange]
}

// Ensure ChangedSource implements apis.Notifier and Raiser.
var (
	_ apis.Notifier = (*ChangedSource)(nil)
	_ Raiser        = (*ChangedSource)(nil)
)

// Changed returns the post-change stream.
func (s *ChangedSource) Changed() rx.Observable[apis.PropertyChange] { return &s.changed }

// RaiseChanged announces that name on sender changed.
func (s *ChangedSource) RaiseChanged(sender any, name string) {
	s.changed.OnNext(apis.PropertyChange{Sender: sender, Name: name})
}

// Set assigns v to *field and raises name around the assignment when the
// value differs. Pre-change notification is raised when r supports it.
// It reports whether the field changed.
func Set[T comparable](r Raiser, sender any, field *T, v T, name string) bool {
	if *field == v {
		return false
	}
	return raiseAround(r, sender, name, func() { *field = v })
}

// SetIndex assigns v to s[i] and raises member+"[]" around the assignment
// when the element differs.
func SetIndex[S ~[]E, E comparable](r Raiser, sender any, s S, i int, v E, member string) bool {
	if s[i] == v {
		return false
	}
	return raiseAround(r, sender, member+apis.IndexerSuffix, func() { s[i] = v })
}

// SetKey assigns v to m[k] and raises member+"[]" around the assignment
// when the entry is missing or differs. m must be non-nil.
func SetKey[M ~map[K]V, K, V comparable](r Raiser, sender any, m M, k K, v V, member string) bool {
	if old, ok := m[k]; ok && old == v {
		return false
	}
	return raiseAround(r, sender, member+apis.IndexerSuffix, func() { m[k] = v })
}

func raiseAround(r Raiser, sender any, name string, assign func()) bool {
	if d, ok := r.(DualRaiser); ok {
		d.RaiseChanging(sender, name)
	}
	assign()
	r.RaiseChanged(sender, name)
	return true
}
