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

package chain

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/config"
	uref "dirpx.dev/obx/utils/reflect"
)

var (
	// ErrBrokenChain indicates a nil object before the leaf.
	ErrBrokenChain = errors.New("obx(chain): broken chain")
	// ErrIndexOutOfRange indicates an index outside the collection bounds.
	// It is transient: the collection may grow.
	ErrIndexOutOfRange = errors.New("obx(chain): index out of range")
	// ErrKeyNotFound indicates a missing map key. It is transient.
	ErrKeyNotFound = errors.New("obx(chain): key not found")
	// ErrNotIndexable indicates an indexer applied to a value that is not a
	// slice, array, map or string, or a key of the wrong kind.
	ErrNotIndexable = errors.New("obx(chain): value is not indexable")
	// ErrUnknownMember indicates a member the sender type does not have.
	ErrUnknownMember = errors.New("obx(chain): unknown member")
	// ErrTypeMismatch indicates a value that cannot be stored in, or read
	// as, the requested type.
	ErrTypeMismatch = errors.New("obx(chain): type mismatch")
)

// IsTransient reports whether err is a read failure that may heal without
// an upstream change notification (the collection grows, the key appears).
func IsTransient(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange) || errors.Is(err, ErrKeyNotFound)
}

// ResolveError names the path and the segment a value read failed at.
type ResolveError struct {
	Path    string
	Segment string
	Index   int
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("obx(chain): cannot resolve %q at segment %d (%s): %v", e.Path, e.Index, e.Segment, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Reader reads and writes chains under one configuration. MaxUnwrap
// bounds pointer and interface unwrapping; the member cache follows the
// cache policy and BigCacheLimit.
type Reader struct {
	members   *uref.Members
	maxUnwrap int
}

// NewReader returns a Reader for cfg.
func NewReader(cfg apis.Config) *Reader {
	return &Reader{members: uref.NewMembers(cfg), maxUnwrap: cfg.MaxUnwrap}
}

// std backs the package-level helpers with the process configuration.
var std = sync.OnceValue(func() *Reader {
	return NewReader(config.Current())
})

// ReadLink reads one link off sender with the process configuration.
// A nil sender is ErrBrokenChain.
func ReadLink(sender any, link apis.Link) (any, error) {
	return std().ReadLink(sender, link)
}

// ReadLink reads one link off sender. A nil sender is ErrBrokenChain.
func (r *Reader) ReadLink(sender any, link apis.Link) (any, error) {
	v, err := r.readLink(reflect.ValueOf(sender), link)
	if err != nil {
		return nil, err
	}
	return valueOf(v), nil
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func (r *Reader) readLink(v reflect.Value, link apis.Link) (reflect.Value, error) {
	if uref.IsNil(v) {
		return reflect.Value{}, ErrBrokenChain
	}
	var err error
	if link.Member != "" {
		if v, err = r.readMember(v, link.Member); err != nil {
			return reflect.Value{}, err
		}
	}
	if link.Indexer {
		return r.index(v, link.Key)
	}
	return v, nil
}

func (r *Reader) readMember(v reflect.Value, name string) (reflect.Value, error) {
	iv, ok := uref.Indirect(v, r.maxUnwrap)
	if !ok {
		return reflect.Value{}, ErrBrokenChain
	}
	if iv.Kind() == reflect.Map && iv.Type().Key().Kind() == reflect.String {
		mv := iv.MapIndex(reflect.ValueOf(name).Convert(iv.Type().Key()))
		if !mv.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrKeyNotFound, name)
		}
		return mv, nil
	}
	m, err := r.members.Lookup(iv.Type(), name)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrUnknownMember, iv.Type(), name)
	}
	// Keep the pointer so pointer-receiver getters are reachable.
	recv := v
	for recv.Kind() == reflect.Interface {
		recv = recv.Elem()
	}
	out, err := m.Get(recv)
	if err != nil {
		return reflect.Value{}, err
	}
	if !out.IsValid() {
		return reflect.Value{}, ErrBrokenChain
	}
	return out, nil
}

func (r *Reader) index(v reflect.Value, key any) (reflect.Value, error) {
	iv, ok := uref.Indirect(v, r.maxUnwrap)
	if !ok {
		return reflect.Value{}, ErrBrokenChain
	}
	switch iv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		i, ok := key.(int)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s with key %v", ErrNotIndexable, iv.Type(), key)
		}
		if i < 0 || i >= iv.Len() {
			return reflect.Value{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, iv.Len())
		}
		return iv.Index(i), nil
	case reflect.Map:
		kv, err := mapKey(key, iv.Type().Key())
		if err != nil {
			return reflect.Value{}, err
		}
		mv := iv.MapIndex(kv)
		if !mv.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrKeyNotFound, apis.FormatKey(key))
		}
		return mv, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrNotIndexable, iv.Type())
}

func mapKey(key any, kt reflect.Type) (reflect.Value, error) {
	kv := reflect.ValueOf(key)
	switch {
	case kv.Type().AssignableTo(kt):
		return kv, nil
	case kv.Kind() == reflect.String && kt.Kind() == reflect.String:
		return kv.Convert(kt), nil
	case kv.Kind() == reflect.Int && isInteger(kt.Kind()):
		return kv.Convert(kt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: key %v for %s", ErrNotIndexable, key, kt)
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// Resolve walks c from sender and returns the leaf value. Failures are
// reported as *ResolveError. A nil leaf is a value, not a failure.
func Resolve(sender any, c apis.Chain) (any, error) {
	return std().Resolve(sender, c)
}

// Resolve is the package-level Resolve under r's configuration.
func (r *Reader) Resolve(sender any, c apis.Chain) (any, error) {
	v, err := r.walk(reflect.ValueOf(sender), c, len(c))
	if err != nil {
		return nil, err
	}
	return valueOf(v), nil
}

func (r *Reader) walk(v reflect.Value, c apis.Chain, n int) (reflect.Value, error) {
	for i := 0; i < n; i++ {
		next, err := r.readLink(v, c[i])
		if err != nil {
			return reflect.Value{}, &ResolveError{Path: c.String(), Segment: c[i].String(), Index: i, Err: err}
		}
		v = next
	}
	return v, nil
}

// TryGetValue walks c from sender. It reports false when the chain is
// broken or a link cannot be read.
func TryGetValue(sender any, c apis.Chain) (any, bool) {
	v, err := Resolve(sender, c)
	return v, err == nil
}

// GetValue walks c from sender. Unlike TryGetValue it fails with an error
// naming the full path and the offending segment.
func GetValue(sender any, c apis.Chain) (any, error) {
	return Resolve(sender, c)
}

// As converts a resolved value to V. A nil value yields the zero V.
func As[V any](v any) (V, error) {
	var zero V
	if v == nil {
		return zero, nil
	}
	if out, ok := v.(V); ok {
		return out, nil
	}
	rv := reflect.ValueOf(v)
	vt := reflect.TypeOf((*V)(nil)).Elem()
	if rv.Type().ConvertibleTo(vt) && sameFamily(rv.Kind(), vt.Kind()) {
		return rv.Convert(vt).Interface().(V), nil
	}
	return zero, fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, vt)
}

// sameFamily restricts conversions to numeric-to-numeric and
// string-to-string, so int never converts to a rune string.
func sameFamily(a, b reflect.Kind) bool {
	num := func(k reflect.Kind) bool {
		return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
	}
	switch {
	case num(a) && num(b):
		return true
	case a == reflect.String && b == reflect.String:
		return true
	}
	return a == b && a != reflect.Interface
}
