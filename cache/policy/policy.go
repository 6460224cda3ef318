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

// Package policy defines how the engine's memoizing caches retain entries.
package policy

import (
	"fmt"
	"strings"
)

// Policy controls the retention behavior of a bounded cache.
//
// # Overview
//
// Every memoizing cache in the engine (analyzed expression chains, strategy
// resolutions, member accessors) is bounded by one of the two cache tiers
// of the process configuration. Policy selects what happens to entries
// within that bound.
//
// # Values
//
//   - LRU: keep up to the tier limit, evicting the least recently used.
//   - None: retain nothing; every lookup recomputes.
//
// # Contract
//
//   - Policy values are plain integers and safe to share across goroutines.
//   - Existing values MUST NOT change meaning; new values may be appended.
type Policy int

const (
	// LRU selects least-recently-used eviction once the tier limit is
	// exceeded. A read refreshes recency; so does a write.
	LRU Policy = iota

	// None disables retention. Lookups always miss and writes are dropped,
	// which is mainly useful to compare behavior with and without caching.
	None
)

// String returns a short, stable identifier for p.
//
// Known values map to "LRU" and "None". Unknown values render as
// "Unknown(<n>)" and never panic, so corrupted values still surface in logs.
func (p Policy) String() string {
	switch p {
	case LRU:
		return "LRU"
	case None:
		return "None"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Retains reports whether caches governed by p keep entries at all.
func (p Policy) Retains() bool {
	return p == LRU
}

// Parse converts a case-insensitive token ("lru", "none") into a Policy.
// Surrounding whitespace is ignored. On failure it returns None and a
// non-nil error.
func Parse(s string) (Policy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return None, fmt.Errorf("policy: empty cache policy")
	}

	switch strings.ToUpper(trimmed) {
	case "LRU":
		return LRU, nil
	case "NONE":
		return None, nil
	default:
		return None, fmt.Errorf("policy: unknown cache policy %q", s)
	}
}

// MustParse is like Parse but panics on invalid input. Use it for
// hard-coded values only.
func MustParse(s string) Policy {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalText implements encoding.TextMarshaler. Unknown values are an
// error rather than an "Unknown(...)" token.
func (p Policy) MarshalText() ([]byte, error) {
	switch p {
	case LRU, None:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("policy: cannot marshal unknown cache policy %d", int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. On failure *p is left
// unchanged.
func (p *Policy) UnmarshalText(text []byte) error {
	value, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = value
	return nil
}
