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
	"log/slog"

	"dirpx.dev/obx/rx"
)

// Builder composes a Registry and an Analyzer from a Config.
// Implementations may migrate state from previous instances (prev), or ignore them.
type Builder interface {
	// BuildRegistry constructs a Registry holding the built-in strategies.
	// Strategies registered on prev that are not built in are carried over.
	BuildRegistry(cfg Config, prev Registry, env Env) Registry
	// BuildAnalyzer constructs an Analyzer bounded by cfg.
	BuildAnalyzer(cfg Config, prev Analyzer, env Env) Analyzer
}

// Env carries the collaborators engine components log, schedule and
// record through.
type Env struct {
	// Scheduler receives fallback-strategy emissions.
	Scheduler rx.Scheduler
	// Logger receives diagnostics.
	Logger *slog.Logger
	// Recorder receives counters.
	Recorder Recorder
}

// WithDefaults fills unset collaborators: rx.Immediate, slog.Default()
// and NopRecorder.
func (e Env) WithDefaults() Env {
	if e.Scheduler == nil {
		e.Scheduler = rx.Immediate
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Recorder == nil {
		e.Recorder = NopRecorder{}
	}
	return e
}
