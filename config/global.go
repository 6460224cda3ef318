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

package config

import (
	"sync/atomic"

	"dirpx.dev/obx/apis"
)

// current is the process-wide configuration. It is published at most once.
var current atomic.Pointer[apis.Config]

// Init publishes cfg as the process-wide configuration. Only the first
// publication wins: Init returns false, and changes nothing, once a
// configuration was published explicitly or by a call to Current.
func Init(cfg apis.Config) bool {
	cfg = sanitize(cfg, DefaultConfig())
	return current.CompareAndSwap(nil, &cfg)
}

// Current returns the process-wide configuration, publishing
// DefaultConfig if nothing was published yet.
func Current() apis.Config {
	if p := current.Load(); p != nil {
		return *p
	}
	def := DefaultConfig()
	current.CompareAndSwap(nil, &def)
	return *current.Load()
}

// Initialized reports whether a process-wide configuration was published.
func Initialized() bool {
	return current.Load() != nil
}
