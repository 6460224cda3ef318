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

import "reflect"

// Registry holds the registered strategies and resolves one per
// (type, property, direction) query.
type Registry interface {
	// Register appends s. Registration order breaks affinity ties
	// (first-registered wins).
	Register(s Strategy) error
	// Resolve returns the strategy with the strictly highest positive
	// affinity, or an error if none qualifies.
	Resolve(t reflect.Type, property string, beforeChanged bool) (Strategy, error)
	// Strategies returns a snapshot in registration order.
	Strategies() []Strategy
	// Count returns the number of registered strategies.
	Count() int
	// Reset removes every strategy.
	Reset()
}
