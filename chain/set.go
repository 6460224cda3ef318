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

	"dirpx.dev/obx/apis"
	uref "dirpx.dev/obx/utils/reflect"
)

// ErrNotWritable indicates a leaf that cannot be assigned: an unexported or
// getter-only member, a value copy, or an immutable string element.
var ErrNotWritable = errors.New("obx(chain): path is not writable")

// SetValue walks c from target up to the owner of the leaf and assigns
// value to the leaf. Fields, string-keyed map members, Set<Name> setter
// methods, slice/array elements and map entries are writable. A nil value
// stores the zero value of the leaf type.
func SetValue(target any, c apis.Chain, value any) error {
	return std().SetValue(target, c, value)
}

// SetValue is the package-level SetValue under r's configuration.
func (r *Reader) SetValue(target any, c apis.Chain, value any) error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty chain", ErrNotWritable)
	}
	owner, err := r.walk(reflect.ValueOf(target), c, len(c)-1)
	if err != nil {
		return err
	}
	leaf := c.Leaf()
	if err := r.assignLink(owner, leaf, value); err != nil {
		return &ResolveError{Path: c.String(), Segment: leaf.String(), Index: len(c) - 1, Err: err}
	}
	return nil
}

func (r *Reader) assignLink(owner reflect.Value, link apis.Link, value any) error {
	if uref.IsNil(owner) {
		return ErrBrokenChain
	}
	if !link.Indexer {
		return r.assignMember(owner, link.Member, value)
	}
	coll := owner
	if link.Member != "" {
		var err error
		if coll, err = r.readMember(owner, link.Member); err != nil {
			return err
		}
	}
	return r.assignIndex(coll, link.Key, value)
}

func (r *Reader) assignMember(owner reflect.Value, name string, value any) error {
	iv, ok := uref.Indirect(owner, r.maxUnwrap)
	if !ok {
		return ErrBrokenChain
	}
	if iv.Kind() == reflect.Map && iv.Type().Key().Kind() == reflect.String {
		if iv.IsNil() {
			return ErrBrokenChain
		}
		x, err := convert(value, iv.Type().Elem())
		if err != nil {
			return err
		}
		iv.SetMapIndex(reflect.ValueOf(name).Convert(iv.Type().Key()), x)
		return nil
	}
	m, err := r.members.Lookup(iv.Type(), name)
	if err != nil {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMember, iv.Type(), name)
	}
	x, err := convert(value, m.Type)
	if err != nil {
		return err
	}
	recv := owner
	for recv.Kind() == reflect.Interface {
		recv = recv.Elem()
	}
	if err := m.Set(recv, x); err != nil {
		if errors.Is(err, uref.ErrMemberNotWritable) {
			return fmt.Errorf("%w: %v", ErrNotWritable, err)
		}
		return err
	}
	return nil
}

func (r *Reader) assignIndex(coll reflect.Value, key any, value any) error {
	iv, ok := uref.Indirect(coll, r.maxUnwrap)
	if !ok {
		return ErrBrokenChain
	}
	switch iv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := key.(int)
		if !ok {
			return fmt.Errorf("%w: %s with key %v", ErrNotIndexable, iv.Type(), key)
		}
		if i < 0 || i >= iv.Len() {
			return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, iv.Len())
		}
		ev := iv.Index(i)
		if !ev.CanSet() {
			return fmt.Errorf("%w: element %d of %s", ErrNotWritable, i, iv.Type())
		}
		x, err := convert(value, iv.Type().Elem())
		if err != nil {
			return err
		}
		ev.Set(x)
		return nil
	case reflect.Map:
		if iv.IsNil() {
			return ErrBrokenChain
		}
		kv, err := mapKey(key, iv.Type().Key())
		if err != nil {
			return err
		}
		x, err := convert(value, iv.Type().Elem())
		if err != nil {
			return err
		}
		iv.SetMapIndex(kv, x)
		return nil
	case reflect.String:
		return fmt.Errorf("%w: string element", ErrNotWritable)
	}
	return fmt.Errorf("%w: %s", ErrNotIndexable, iv.Type())
}

func convert(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && sameFamily(v.Kind(), t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrTypeMismatch, v.Type(), t)
}
