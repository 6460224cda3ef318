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

// Package strategy holds the built-in notification strategies: dual-channel
// notifying, conventional post-change notifying, and the snapshot fallback.
package strategy

import (
	"errors"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/rx"
)

// Names of the built-in strategies.
const (
	DualName         = "dual"
	ConventionalName = "conventional"
	FallbackName     = "fallback"
)

// Affinities of the built-in strategies. Richer notification always wins;
// the fallback is the lowest positive score so that some strategy always
// qualifies.
const (
	DualAffinity         = 10
	ConventionalAffinity = 5
	FallbackAffinity     = 1
)

// ErrUnsupportedSender is emitted by a notifying strategy subscribed to a
// sender lacking its capability.
var ErrUnsupportedSender = errors.New("obx(strategy): sender lacks the notification capability")

// IsBuiltin reports whether name is one of the built-in strategy names.
func IsBuiltin(name string) bool {
	switch name {
	case DualName, ConventionalName, FallbackName:
		return true
	}
	return false
}

// changes turns a property-change source into the link's change stream.
// An empty property name means every property of the sender changed.
func changes(src rx.Observable[apis.PropertyChange], sender any, link apis.Link) rx.Observable[apis.Change] {
	relevant := rx.Filter(src, func(pc apis.PropertyChange) bool {
		return pc.Name == "" || link.Matches(pc.Name)
	})
	return rx.Map(relevant, func(pc apis.PropertyChange) apis.Change {
		return apis.Change{Sender: sender, Link: link, Property: pc.Name}
	})
}

func unsupported[T any]() rx.Observable[T] {
	return rx.Create(func(o rx.Observer[T]) rx.Disposable {
		o.OnError(ErrUnsupportedSender)
		return rx.Nop
	})
}
