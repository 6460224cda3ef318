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

var dualType = reflect.TypeOf((*apis.DualNotifier)(nil)).Elem()

// NewDual creates an apis.Strategy for senders implementing
// apis.DualNotifier. It observes Changing() before and Changed() after a
// change.
func NewDual() apis.Strategy {
	return &dualStrategy{}
}

// dualStrategy binds to both notification channels of a DualNotifier.
type dualStrategy struct{}

// Ensure dualStrategy implements apis.Strategy.
var _ apis.Strategy = (*dualStrategy)(nil)

func (*dualStrategy) Name() string { return DualName }

// Affinity is DualAffinity for DualNotifier types in both directions.
func (*dualStrategy) Affinity(t reflect.Type, _ string, _ bool) int {
	if t != nil && t.Implements(dualType) {
		return DualAffinity
	}
	return 0
}

// Subscribe filters the channel matching beforeChanged down to link.
func (*dualStrategy) Subscribe(sender any, link apis.Link, beforeChanged bool) rx.Observable[apis.Change] {
	n, ok := sender.(apis.DualNotifier)
	if !ok {
		return unsupported[apis.Change]()
	}
	if beforeChanged {
		return changes(n.Changing(), sender, link)
	}
	return changes(n.Changed(), sender, link)
}
