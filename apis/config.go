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

import "dirpx.dev/obx/cache/policy"

// Config carries the process-wide cache bounds and resolution knobs.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// SmallCacheLimit bounds caches keyed by expression shape
	// (the Expression Analyzer).
	SmallCacheLimit int

	// BigCacheLimit bounds caches keyed by type and member
	// (strategy resolution memo, member accessors).
	BigCacheLimit int

	// CachePolicy selects how bounded caches retain entries.
	CachePolicy policy.Policy

	// MaxUnwrap limits pointer/interface unwrapping depth when a link is
	// resolved against a value or type.
	MaxUnwrap int

	// MaxResolveRetries bounds immediate re-reads of a link whose value
	// could not be resolved for a transient reason (index out of range,
	// missing map key) before the chain is treated as broken.
	MaxResolveRetries int
}
