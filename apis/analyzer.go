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

// Analyzer turns property-path expressions into chains, caching the
// result per expression shape.
type Analyzer interface {
	// Analyze returns the chain of expr rooted at root. A nil root skips
	// static member validation.
	Analyze(root reflect.Type, expr string) (Chain, error)
	// Stats returns cache counters.
	Stats() CacheStats
	// Len returns the number of cached chains.
	Len() int
	// Purge drops every cached chain.
	Purge()
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
