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

// Package analyzer turns property-path expressions into chains and caches
// them per expression shape.
package analyzer

import (
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/chain"
	uref "dirpx.dev/obx/utils/reflect"
)

// shapeKey identifies an expression shape for a root type. The hash is of
// the canonical expression; entries keep the canonical string so that two
// shapes colliding on the hash never alias.
type shapeKey struct {
	root  reflect.Type
	shape uint64
}

type entry struct {
	canonical string
	chain     apis.Chain
}

// Analyzer is the default apis.Analyzer.
type Analyzer struct {
	cfg     apis.Config
	rec     apis.Recorder
	members *uref.Members
	cache   *lru.Cache[shapeKey, entry]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Ensure Analyzer implements apis.Analyzer.
var _ apis.Analyzer = (*Analyzer)(nil)

// New returns an Analyzer bounded by cfg.SmallCacheLimit. With
// policy.None every call re-analyzes.
func New(cfg apis.Config, env apis.Env) *Analyzer {
	env = env.WithDefaults()
	a := &Analyzer{
		cfg:     cfg,
		rec:     env.Recorder,
		members: uref.NewMembers(cfg).WithRecorder(env.Recorder),
	}
	if cfg.CachePolicy.Retains() && cfg.SmallCacheLimit > 0 {
		c, err := lru.NewWithEvict[shapeKey, entry](cfg.SmallCacheLimit, func(shapeKey, entry) {
			a.evictions.Add(1)
		})
		if err == nil {
			a.cache = c
		}
	}
	return a
}

// Analyze parses expr and validates it against root. A nil root skips
// static validation; interface-typed links stop it, since their concrete
// type is only known at runtime. The returned chain is a private copy.
func (a *Analyzer) Analyze(root reflect.Type, expr string) (apis.Chain, error) {
	c, err := chain.ParseRooted(root, expr, a.cfg)
	if err != nil {
		return nil, err
	}
	canon := c.String()
	k := shapeKey{root: root, shape: xxhash.Sum64String(canon)}

	if a.cache != nil {
		if e, ok := a.cache.Get(k); ok && e.canonical == canon {
			a.hits.Add(1)
			a.rec.CacheLookup(apis.CacheExpressions, true)
			return slices.Clone(e.chain), nil
		}
	}
	a.misses.Add(1)
	a.rec.CacheLookup(apis.CacheExpressions, false)

	if err := a.validate(root, c); err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Add(k, entry{canonical: canon, chain: c})
	}
	return slices.Clone(c), nil
}

func (a *Analyzer) validate(root reflect.Type, c apis.Chain) error {
	t := root
	for _, l := range c {
		if t == nil {
			return nil
		}
		var err error
		if l.Member != "" {
			if t, err = a.member(t, l.Member); err != nil {
				return fmt.Errorf("%w (in %q)", err, c.String())
			}
		}
		if l.Indexer {
			if t, err = a.element(t, l.Key); err != nil {
				return fmt.Errorf("%w (in %q)", err, c.String())
			}
		}
	}
	return nil
}

// member returns the static type of t.name, or nil when it is only known
// at runtime.
func (a *Analyzer) member(t reflect.Type, name string) (reflect.Type, error) {
	nt, err := uref.Normalize(t, a.cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case nt.Kind() == reflect.Interface:
		if m, err := uref.LookupMember(nt, name); err == nil {
			return m.Type, nil
		}
		return nil, nil
	case nt.Kind() == reflect.Map && nt.Key().Kind() == reflect.String:
		return nt.Elem(), nil
	}
	m, err := a.members.Lookup(nt, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s", chain.ErrUnknownMember, nt, name)
	}
	return m.Type, nil
}

// element returns the static element type of t[key].
func (a *Analyzer) element(t reflect.Type, key any) (reflect.Type, error) {
	nt, err := uref.Normalize(t, a.cfg)
	if err != nil {
		return nil, err
	}
	switch nt.Kind() {
	case reflect.Interface:
		return nil, nil
	case reflect.Slice, reflect.Array:
		if _, ok := key.(int); ok {
			return nt.Elem(), nil
		}
	case reflect.String:
		if _, ok := key.(int); ok {
			return reflect.TypeOf(byte(0)), nil
		}
	case reflect.Map:
		kt := nt.Key()
		switch key.(type) {
		case string:
			if kt.Kind() == reflect.String || kt.Kind() == reflect.Interface {
				return nt.Elem(), nil
			}
		case int:
			switch kt.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
				reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
				reflect.Interface:
				return nt.Elem(), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s[%s]", chain.ErrNotIndexable, nt, apis.FormatKey(key))
}

// Stats returns a snapshot of the cache counters.
func (a *Analyzer) Stats() apis.CacheStats {
	return apis.CacheStats{
		Hits:      a.hits.Load(),
		Misses:    a.misses.Load(),
		Evictions: a.evictions.Load(),
	}
}

// Len returns the number of cached shapes.
func (a *Analyzer) Len() int {
	if a.cache == nil {
		return 0
	}
	return a.cache.Len()
}

// Purge drops every cached shape. Purged entries count as evictions.
func (a *Analyzer) Purge() {
	if a.cache != nil {
		a.cache.Purge()
	}
}
