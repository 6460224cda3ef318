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

import (
	"reflect"

	"dirpx.dev/obx/rx"
)

// Strategy produces change-notification streams for a family of types.
// A Registry picks, per (type, property, direction), the strategy
// reporting the highest affinity.
type Strategy interface {
	// Name identifies the strategy in diagnostics and registrations.
	Name() string

	// Affinity reports how well the strategy observes property on values of
	// type t. Zero or negative means unsupported. It must be a pure function
	// of its arguments.
	Affinity(t reflect.Type, property string, beforeChanged bool) int

	// Subscribe returns the change stream of link on sender. Each call is
	// independent of every other.
	Subscribe(sender any, link Link, beforeChanged bool) rx.Observable[Change]
}

// QuietStrategy is implemented by strategies that emit a diagnostic
// warning on use and can subscribe without it.
type QuietStrategy interface {
	Strategy
	SubscribeQuiet(sender any, link Link, beforeChanged bool) rx.Observable[Change]
}

// Resolver picks the strategy with the highest affinity.
type Resolver interface {
	// Resolve returns the winning strategy and its affinity, or (nil, 0)
	// when no strategy reports a positive affinity.
	Resolve(t reflect.Type, property string, beforeChanged bool) (Strategy, int)
}
