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

package apis

import "dirpx.dev/obx/rx"

// PropertyChange is the event shape emitted by notification sources: the
// object that changed and the tagged property name (member name, or member
// name plus IndexerSuffix for element changes).
type PropertyChange struct {
	Sender any
	Name   string
}

// Notifier is the conventional notification capability: a single
// post-change stream.
type Notifier interface {
	Changed() rx.Observable[PropertyChange]
}

// DualNotifier is the dual-channel notification capability: a pre-change
// stream in addition to the post-change stream.
type DualNotifier interface {
	Notifier
	Changing() rx.Observable[PropertyChange]
}

// Change is the record a Strategy emits for one observed link.
type Change struct {
	// Sender is the object owning the link.
	Sender any
	// Link is the observed link.
	Link Link
	// Property is the tagged name reported by the source, if any.
	Property string
	// Value is a snapshot of the link value when Resolved is true.
	Value any
	// Resolved reports whether Value holds a snapshot. Notifying
	// strategies leave it false; the value is read lazily.
	Resolved bool
}
