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

package strategy

import (
	"reflect"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/rx"
)

var notifierType = reflect.TypeOf((*apis.Notifier)(nil)).Elem()

// NewConventional creates an apis.Strategy for senders implementing
// apis.Notifier. Only post-change notification exists.
func NewConventional() apis.Strategy {
	return &conventionalStrategy{}
}

// conventionalStrategy binds to the single post-change channel of a Notifier.
type conventionalStrategy struct{}

// Ensure conventionalStrategy implements apis.Strategy.
var _ apis.Strategy = (*conventionalStrategy)(nil)

func (*conventionalStrategy) Name() string { return ConventionalName }

// Affinity is ConventionalAffinity for Notifier types after a change, and
// zero before one.
func (*conventionalStrategy) Affinity(t reflect.Type, _ string, beforeChanged bool) int {
	if !beforeChanged && t != nil && t.Implements(notifierType) {
		return ConventionalAffinity
	}
	return 0
}

// Subscribe filters Changed() down to link. A pre-change request yields a
// stream that never emits: the capability does not exist.
func (*conventionalStrategy) Subscribe(sender any, link apis.Link, beforeChanged bool) rx.Observable[apis.Change] {
	if beforeChanged {
		return rx.Never[apis.Change]()
	}
	n, ok := sender.(apis.Notifier)
	if !ok {
		return unsupported[apis.Change]()
	}
	return changes(n.Changed(), sender, link)
}
