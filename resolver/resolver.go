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

package resolver

import (
	"reflect"

	"dirpx.dev/obx/apis"
)

// New constructs an apis.Resolver over the given strategies in order.
// Nil strategies are ignored. The returned resolver is safe for concurrent use
// provided strategies themselves are safe for concurrent Affinity calls.
func New(strategies ...apis.Strategy) apis.Resolver {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]apis.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return ordered{strats: out}
}

// ordered is an immutable, order-preserving resolver over a set of strategies.
type ordered struct {
	strats []apis.Strategy
}

// Resolve asks every strategy for its affinity and keeps the strictly
// highest positive score. Ties keep the earlier strategy, so the result
// depends only on the arguments and the registration order.
func (r ordered) Resolve(t reflect.Type, property string, beforeChanged bool) (apis.Strategy, int) {
	var best apis.Strategy
	score := 0
	for _, s := range r.strats {
		if a := s.Affinity(t, property, beforeChanged); a > score {
			best, score = s, a
		}
	}
	return best, score
}
