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

package reflect

import (
	"errors"
	"reflect"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("obx(reflect): nil reflect.Type provided")
	// ErrReflectUnwrapLimit indicates that the type is still a pointer after
	// MaxUnwrap dereferences.
	ErrReflectUnwrapLimit = errors.New("obx(reflect): pointer depth exceeds MaxUnwrap")
)

// Normalize unwraps pointer types according to cfg.MaxUnwrap and returns the
// type that owns members (fields, getters, keys, elements).
//
// Interface types are returned as-is: their concrete type is only known at
// runtime. If MaxUnwrap <= 0, DefaultMaxUnwrap is used.
func Normalize(t reflect.Type, cfg apis.Config) (reflect.Type, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	maxUnwrap := cfg.MaxUnwrap
	if maxUnwrap <= 0 {
		maxUnwrap = config.DefaultMaxUnwrap
	}

	for i := 0; i < maxUnwrap && t.Kind() == reflect.Ptr; i++ {
		t = t.Elem()
	}
	if t.Kind() == reflect.Ptr {
		return nil, ErrReflectUnwrapLimit
	}
	return t, nil
}

// Indirect dereferences pointers and interfaces held by v, at most max
// times (DefaultMaxUnwrap if max <= 0). It reports false when v is invalid
// or a nil pointer/interface is met on the way.
func Indirect(v reflect.Value, max int) (reflect.Value, bool) {
	if max <= 0 {
		max = config.DefaultMaxUnwrap
	}
	for i := 0; v.IsValid() && i <= max; i++ {
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		default:
			return v, true
		}
	}
	return reflect.Value{}, false
}

// IsNil reports whether v is invalid or a nil pointer, interface, map,
// slice, func or chan.
func IsNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
