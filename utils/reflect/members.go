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
	"fmt"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/cache/policy"
)

var (
	// ErrMemberNotFound indicates that a type has no exported field or
	// getter method with the requested name.
	ErrMemberNotFound = errors.New("obx(reflect): member not found")
	// ErrMemberNotWritable indicates that a member has neither a settable
	// field nor a Set<Name> method, or the target is not addressable.
	ErrMemberNotWritable = errors.New("obx(reflect): member is not writable")
	// ErrGetterPanic wraps a panic raised by a getter method.
	ErrGetterPanic = errors.New("obx(reflect): getter panicked")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// MemberKind tells how a member is read.
type MemberKind uint8

const (
	// FieldMember is an exported struct field, possibly promoted.
	FieldMember MemberKind = iota
	// GetterMember is a zero-argument method returning T or (T, error).
	GetterMember
)

// Member describes a readable member of a struct type.
type Member struct {
	// Name is the Go identifier of the member.
	Name string
	// Kind is how the member is read.
	Kind MemberKind
	// Type is the static type of the member value.
	Type reflect.Type

	index    []int
	fallible bool
	setter   string
}

// Writable reports whether the member can be assigned, either as a field
// or through a Set<Name> method.
func (m *Member) Writable() bool {
	return m.Kind == FieldMember || m.setter != ""
}

// LookupMember finds the exported field or getter method called name on t.
// Fields win over methods. t is normalized by the caller; pointer receivers
// are considered for methods.
func LookupMember(t reflect.Type, name string) (*Member, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(name); ok && f.IsExported() {
			return &Member{
				Name:   name,
				Kind:   FieldMember,
				Type:   f.Type,
				index:  f.Index,
				setter: setterFor(t, name, f.Type),
			}, nil
		}
	}

	mt := t
	if t.Kind() != reflect.Interface {
		mt = reflect.PointerTo(t)
	}
	meth, ok := mt.MethodByName(name)
	if !ok || !meth.IsExported() {
		return nil, fmt.Errorf("%w: %s.%s", ErrMemberNotFound, t, name)
	}
	ft := meth.Type
	in := 1
	if t.Kind() == reflect.Interface {
		in = 0
	}
	if ft.NumIn() != in {
		return nil, fmt.Errorf("%w: %s.%s takes arguments", ErrMemberNotFound, t, name)
	}
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
		return &Member{Name: name, Kind: GetterMember, Type: ft.Out(0), setter: setterFor(t, name, ft.Out(0))}, nil
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		return &Member{Name: name, Kind: GetterMember, Type: ft.Out(0), fallible: true, setter: setterFor(t, name, ft.Out(0))}, nil
	}
	return nil, fmt.Errorf("%w: %s.%s is not a getter", ErrMemberNotFound, t, name)
}

func setterFor(t reflect.Type, name string, vt reflect.Type) string {
	if t.Kind() == reflect.Interface {
		return ""
	}
	sname := "Set" + name
	meth, ok := reflect.PointerTo(t).MethodByName(sname)
	if !ok {
		return ""
	}
	ft := meth.Type
	if ft.NumIn() != 2 || !vt.AssignableTo(ft.In(1)) {
		return ""
	}
	if ft.NumOut() > 1 || (ft.NumOut() == 1 && ft.Out(0) != errorType) {
		return ""
	}
	return sname
}

// Get reads the member off v, which must hold (a pointer to) the owning type.
// Nil embedded pointers on a promoted field path read as an invalid Value.
func (m *Member) Get(v reflect.Value) (out reflect.Value, err error) {
	switch m.Kind {
	case FieldMember:
		sv, ok := Indirect(v, 0)
		if !ok {
			return reflect.Value{}, nil
		}
		fv, ferr := sv.FieldByIndexErr(m.index)
		if ferr != nil {
			return reflect.Value{}, nil
		}
		return fv, nil
	default:
		fn := methodOf(v, m.Name)
		if !fn.IsValid() {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrMemberNotFound, m.Name)
		}
		defer func() {
			if r := recover(); r != nil {
				out = reflect.Value{}
				err = fmt.Errorf("%w: %s: %v", ErrGetterPanic, m.Name, r)
			}
		}()
		res := fn.Call(nil)
		if m.fallible && !res[1].IsNil() {
			return reflect.Value{}, res[1].Interface().(error)
		}
		return res[0], nil
	}
}

// Set assigns x to the member of v. v must be a non-nil pointer (or an
// addressable value) of the owning type.
func (m *Member) Set(v reflect.Value, x reflect.Value) error {
	if m.setter != "" {
		fn := methodOf(v, m.setter)
		if fn.IsValid() && (v.Kind() == reflect.Ptr || v.CanAddr()) {
			res := fn.Call([]reflect.Value{x})
			if len(res) == 1 && !res[0].IsNil() {
				return res[0].Interface().(error)
			}
			return nil
		}
	}
	if m.Kind != FieldMember {
		return fmt.Errorf("%w: %s", ErrMemberNotWritable, m.Name)
	}
	sv, ok := Indirect(v, 0)
	if !ok {
		return fmt.Errorf("%w: %s on nil target", ErrMemberNotWritable, m.Name)
	}
	fv, err := sv.FieldByIndexErr(m.index)
	if err != nil || !fv.CanSet() {
		return fmt.Errorf("%w: %s", ErrMemberNotWritable, m.Name)
	}
	fv.Set(x)
	return nil
}

// methodOf returns the bound method name of v, taking the address or a
// copy when the method has a pointer receiver.
func methodOf(v reflect.Value, name string) reflect.Value {
	if !v.IsValid() {
		return reflect.Value{}
	}
	if fn := v.MethodByName(name); fn.IsValid() {
		return fn
	}
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
		if fn := v.MethodByName(name); fn.IsValid() {
			return fn
		}
	}
	if v.Kind() == reflect.Ptr {
		return reflect.Value{}
	}
	if v.CanAddr() {
		return v.Addr().MethodByName(name)
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.MethodByName(name)
}

type memberKey struct {
	t    reflect.Type
	name string
}

type memberEntry struct {
	m   *Member
	err error
}

// Members memoizes LookupMember results per (type, name).
// The zero value is not usable; construct with NewMembers.
type Members struct {
	cache *lru.Cache[memberKey, memberEntry]
	rec   apis.Recorder
}

// NewMembers returns a member cache bounded by cfg.BigCacheLimit.
// With policy.None nothing is retained.
func NewMembers(cfg apis.Config) *Members {
	m := &Members{rec: apis.NopRecorder{}}
	if cfg.CachePolicy.Retains() && cfg.BigCacheLimit > 0 {
		c, err := lru.New[memberKey, memberEntry](cfg.BigCacheLimit)
		if err == nil {
			m.cache = c
		}
	}
	return m
}

// WithRecorder reports cache lookups of m to rec under apis.CacheMembers.
func (m *Members) WithRecorder(rec apis.Recorder) *Members {
	if rec != nil {
		m.rec = rec
	}
	return m
}

// Lookup returns the member called name on t after stripping pointers.
func (m *Members) Lookup(t reflect.Type, name string) (*Member, error) {
	if t == nil {
		return nil, ErrReflectNilType
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if m.cache == nil {
		return LookupMember(t, name)
	}
	k := memberKey{t: t, name: name}
	if e, ok := m.cache.Get(k); ok {
		m.rec.CacheLookup(apis.CacheMembers, true)
		return e.m, e.err
	}
	m.rec.CacheLookup(apis.CacheMembers, false)
	mem, err := LookupMember(t, name)
	m.cache.Add(k, memberEntry{m: mem, err: err})
	return mem, err
}

// Len returns the number of cached entries.
func (m *Members) Len() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

// Policy reports the retention policy of the cache.
func (m *Members) Policy() policy.Policy {
	if m.cache == nil {
		return policy.None
	}
	return policy.LRU
}
