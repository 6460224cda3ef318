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

package builder

import (
	"dirpx.dev/obx/analyzer"
	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/registry"
	"dirpx.dev/obx/strategy"
)

// New creates and returns a new instance of an apis.Builder.
func New() apis.Builder {
	return &builder{}
}

// builder is an empty struct to be used as a receiver for builder methods.
type builder struct{}

// BuildRegistry builds a registry holding the built-in strategies in
// affinity order (dual, conventional, fallback). Strategies registered on
// prev that are not built in are appended after them in their original
// order, so host strategies survive a rebuild.
func (b *builder) BuildRegistry(cfg apis.Config, prev apis.Registry, env apis.Env) apis.Registry {
	env = env.WithDefaults()
	reg := registry.New(cfg, env)
	for _, s := range []apis.Strategy{
		strategy.NewDual(),
		strategy.NewConventional(),
		strategy.NewFallback(env),
	} {
		_ = reg.Register(s)
	}
	if prev == nil {
		return reg
	}
	for _, s := range prev.Strategies() {
		if strategy.IsBuiltin(s.Name()) {
			continue
		}
		if err := reg.Register(s); err != nil {
			env.Logger.Warn("obx: strategy not carried over", "strategy", s.Name(), "error", err)
		}
	}
	return reg
}

// BuildAnalyzer builds an analyzer bounded by cfg. Cached chains of prev
// are not migrated; they are re-derived on first use.
func (b *builder) BuildAnalyzer(cfg apis.Config, _ apis.Analyzer, env apis.Env) apis.Analyzer {
	return analyzer.New(cfg, env.WithDefaults())
}
