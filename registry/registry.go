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

package registry

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/resolver"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("obx(registry): nil reflect.Type provided")
	// ErrNilStrategy is returned when a nil strategy is registered.
	ErrNilStrategy = errors.New("obx(registry): nil strategy provided")
	// ErrEmptyName is returned when a strategy reports an empty name.
	ErrEmptyName = errors.New("obx(registry): empty strategy name")
	// ErrDuplicateStrategy indicates an attempt to register a second
	// strategy under a name already taken.
	ErrDuplicateStrategy = errors.New("obx(registry): strategy already registered")
	// ErrNoStrategy indicates that no registered strategy reports a
	// positive affinity, which means the fallback strategy is missing.
	ErrNoStrategy = errors.New("obx(registry): no strategy supports the property")
)

// snapshot is an immutable view of the registered strategies. Every
// registration publishes a new one with the next generation.
type snapshot struct {
	gen  uint64
	list []apis.Strategy
	res  apis.Resolver
}

type memoKey struct {
	gen      uint64
	t        reflect.Type
	property string
	before   bool
}

// New constructs a Registry that memoizes resolutions in a cache bounded
// by cfg.BigCacheLimit (nothing is retained with policy.None).
func New(cfg apis.Config, env apis.Env) apis.Registry {
	env = env.WithDefaults()
	r := &registry{
		rec:   env.Recorder,
		names: mapset.NewSet[string](),
	}
	r.snap.Store(&snapshot{res: resolver.New()})
	if cfg.CachePolicy.Retains() && cfg.BigCacheLimit > 0 {
		if c, err := lru.New[memoKey, apis.Strategy](cfg.BigCacheLimit); err == nil {
			r.memo = c
		}
	}
	return r
}

// registry is the default Registry: writers serialize on mu and publish
// snapshots; readers never lock.
type registry struct {
	// rec receives resolution counters.
	rec apis.Recorder
	// mu serializes writers.
	mu sync.Mutex
	// names holds the registered strategy names.
	names mapset.Set[string]
	// snap is the current snapshot.
	snap atomic.Pointer[snapshot]
	// memo caches resolutions keyed by snapshot generation.
	memo *lru.Cache[memoKey, apis.Strategy]
}

// Register appends s. Names are unique; registration order breaks
// affinity ties.
func (r *registry) Register(s apis.Strategy) error {
	// Validate inputs early.
	if s == nil {
		return ErrNilStrategy
	}
	name := s.Name()
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.names.Add(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateStrategy, name)
	}
	old := r.snap.Load()
	list := append(slices.Clone(old.list), s)
	r.publish(&snapshot{gen: old.gen + 1, list: list, res: resolver.New(list...)})
	return nil
}

// publish stores next and drops memoized resolutions. Entries added
// concurrently for an older generation are never looked up again.
func (r *registry) publish(next *snapshot) {
	r.snap.Store(next)
	if r.memo != nil {
		r.memo.Purge()
	}
}

// Resolve returns the strategy with the strictly highest positive affinity
// for (t, property, beforeChanged).
func (r *registry) Resolve(t reflect.Type, property string, beforeChanged bool) (apis.Strategy, error) {
	if t == nil {
		return nil, ErrNilType
	}
	snap := r.snap.Load()
	k := memoKey{gen: snap.gen, t: t, property: property, before: beforeChanged}

	if r.memo != nil {
		if s, ok := r.memo.Get(k); ok {
			r.rec.CacheLookup(apis.CacheResolutions, true)
			r.rec.StrategyResolved(s.Name(), beforeChanged)
			return s, nil
		}
		r.rec.CacheLookup(apis.CacheResolutions, false)
	}

	s, _ := snap.res.Resolve(t, property, beforeChanged)
	if s == nil {
		return nil, fmt.Errorf("%w: %s.%s (beforeChanged=%t) among %d strategies",
			ErrNoStrategy, t, property, beforeChanged, len(snap.list))
	}
	if r.memo != nil {
		r.memo.Add(k, s)
	}
	r.rec.StrategyResolved(s.Name(), beforeChanged)
	return s, nil
}

// Strategies returns a snapshot in registration order.
func (r *registry) Strategies() []apis.Strategy {
	return slices.Clone(r.snap.Load().list)
}

// Count returns the number of registered strategies.
func (r *registry) Count() int {
	return len(r.snap.Load().list)
}

// Reset removes every strategy.
func (r *registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names.Clear()
	r.publish(&snapshot{gen: r.snap.Load().gen + 1, res: resolver.New()})
}
