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
	"runtime"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/cache/policy"
)

const (
	// DefaultSmallCacheLimit bounds shape-keyed caches on regular targets.
	DefaultSmallCacheLimit = 64
	// DefaultBigCacheLimit bounds type-keyed caches on regular targets.
	DefaultBigCacheLimit = 256
	// ConstrainedSmallCacheLimit bounds shape-keyed caches on mobile and
	// wasm targets.
	ConstrainedSmallCacheLimit = 32
	// ConstrainedBigCacheLimit bounds type-keyed caches on mobile and wasm
	// targets.
	ConstrainedBigCacheLimit = 64
	// DefaultCachePolicy is LRU eviction.
	DefaultCachePolicy = policy.LRU
	// DefaultMaxUnwrap represents the default for MaxUnwrap.
	// A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
	// DefaultMaxResolveRetries represents the default for MaxResolveRetries.
	DefaultMaxResolveRetries = 3
)

// NewConfig constructs an apis.Config from the given options.
// Non-positive cache limits and negative knobs fall back to defaults.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return sanitize(cfg, DefaultConfig())
}

// DefaultConfig is the default configuration for the running platform.
func DefaultConfig() apis.Config {
	return DefaultsFor(runtime.GOOS, runtime.GOARCH)
}

// DefaultsFor returns the default configuration for a GOOS/GOARCH pair.
// Mobile and wasm targets get the constrained cache tiers.
func DefaultsFor(goos, goarch string) apis.Config {
	cfg := apis.Config{
		SmallCacheLimit:   DefaultSmallCacheLimit,
		BigCacheLimit:     DefaultBigCacheLimit,
		CachePolicy:       DefaultCachePolicy,
		MaxUnwrap:         DefaultMaxUnwrap,
		MaxResolveRetries: DefaultMaxResolveRetries,
	}
	if constrained(goos, goarch) {
		cfg.SmallCacheLimit = ConstrainedSmallCacheLimit
		cfg.BigCacheLimit = ConstrainedBigCacheLimit
	}
	return cfg
}

func constrained(goos, goarch string) bool {
	switch goos {
	case "android", "ios", "js", "wasip1":
		return true
	}
	return goarch == "wasm"
}

func sanitize(cfg, def apis.Config) apis.Config {
	if cfg.SmallCacheLimit <= 0 {
		cfg.SmallCacheLimit = def.SmallCacheLimit
	}
	if cfg.BigCacheLimit <= 0 {
		cfg.BigCacheLimit = def.BigCacheLimit
	}
	if cfg.MaxUnwrap < 0 {
		cfg.MaxUnwrap = def.MaxUnwrap
	}
	if cfg.MaxResolveRetries < 0 {
		cfg.MaxResolveRetries = def.MaxResolveRetries
	}
	return cfg
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithSmallCacheLimit sets the SmallCacheLimit option.
func WithSmallCacheLimit(n int) Option {
	return func(c *apis.Config) {
		c.SmallCacheLimit = n
	}
}

// WithBigCacheLimit sets the BigCacheLimit option.
func WithBigCacheLimit(n int) Option {
	return func(c *apis.Config) {
		c.BigCacheLimit = n
	}
}

// WithCachePolicy sets the CachePolicy option.
func WithCachePolicy(p policy.Policy) Option {
	return func(c *apis.Config) {
		c.CachePolicy = p
	}
}

// WithMaxUnwrap sets the MaxUnwrap option.
// A negative value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}

// WithMaxResolveRetries sets the MaxResolveRetries option.
// A negative value resets to the default.
func WithMaxResolveRetries(n int) Option {
	return func(c *apis.Config) {
		if n < 0 {
			c.MaxResolveRetries = DefaultMaxResolveRetries
			return
		}
		c.MaxResolveRetries = n
	}
}
