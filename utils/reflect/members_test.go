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

package reflect_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/obx/cache/policy"
	"dirpx.dev/obx/config"
	uref "dirpx.dev/obx/utils/reflect"
)

type Base struct{ ID int }

type Person struct {
	Base
	Name  string
	Age   int
	email string
	title string
}

func (p Person) Greeting() string         { return "hi " + p.Name }
func (p *Person) Title() string           { return p.title }
func (p *Person) SetTitle(v string)       { p.title = v }
func (p Person) Checked() (string, error) { return "", errors.New("boom") }
func (p Person) Explode() string          { panic("kaboom") }
func (p Person) WithArg(int) string       { return "" }
func (p Person) Nothing()                 {}

type Wrapper struct {
	*Base
}

func TestLookupMember_Fields(t *testing.T) {
	pt := reflect.TypeOf(Person{})

	m, err := uref.LookupMember(pt, "Name")
	require.NoError(t, err)
	assert.Equal(t, uref.FieldMember, m.Kind)
	assert.Equal(t, reflect.TypeOf(""), m.Type)
	assert.True(t, m.Writable())

	m, err = uref.LookupMember(pt, "ID")
	require.NoError(t, err, "promoted field")
	assert.Equal(t, reflect.TypeOf(0), m.Type)

	_, err = uref.LookupMember(pt, "email")
	assert.ErrorIs(t, err, uref.ErrMemberNotFound)

	_, err = uref.LookupMember(pt, "Missing")
	assert.ErrorIs(t, err, uref.ErrMemberNotFound)
}

func TestLookupMember_Getters(t *testing.T) {
	pt := reflect.TypeOf(Person{})

	tests := []struct {
		name     string
		ok       bool
		writable bool
	}{
		{"Greeting", true, false},
		{"Title", true, true},
		{"Checked", true, false},
		{"WithArg", false, false},
		{"Nothing", false, false},
		{"SetTitle", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := uref.LookupMember(pt, tt.name)
			if !tt.ok {
				assert.ErrorIs(t, err, uref.ErrMemberNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uref.GetterMember, m.Kind)
			assert.Equal(t, tt.writable, m.Writable())
		})
	}
}

func TestMember_Get(t *testing.T) {
	p := &Person{Base: Base{ID: 7}, Name: "ann", title: "dr"}
	pt := reflect.TypeOf(Person{})

	get := func(name string, v reflect.Value) (reflect.Value, error) {
		m, err := uref.LookupMember(pt, name)
		require.NoError(t, err)
		return m.Get(v)
	}

	v, err := get("Name", reflect.ValueOf(p))
	require.NoError(t, err)
	assert.Equal(t, "ann", v.Interface())

	v, err = get("ID", reflect.ValueOf(*p))
	require.NoError(t, err)
	assert.Equal(t, 7, v.Interface())

	v, err = get("Greeting", reflect.ValueOf(p))
	require.NoError(t, err)
	assert.Equal(t, "hi ann", v.Interface())

	v, err = get("Title", reflect.ValueOf(*p))
	require.NoError(t, err, "pointer receiver on a value copy")
	assert.Equal(t, "dr", v.Interface())

	_, err = get("Checked", reflect.ValueOf(p))
	assert.EqualError(t, err, "boom")

	_, err = get("Explode", reflect.ValueOf(p))
	assert.ErrorIs(t, err, uref.ErrGetterPanic)
}

func TestMember_Get_NilEmbeddedPointer(t *testing.T) {
	m, err := uref.LookupMember(reflect.TypeOf(Wrapper{}), "ID")
	require.NoError(t, err)

	v, err := m.Get(reflect.ValueOf(&Wrapper{}))
	require.NoError(t, err)
	assert.False(t, v.IsValid())
}

func TestMember_Set(t *testing.T) {
	pt := reflect.TypeOf(Person{})
	p := &Person{}

	name, err := uref.LookupMember(pt, "Name")
	require.NoError(t, err)
	require.NoError(t, name.Set(reflect.ValueOf(p), reflect.ValueOf("bob")))
	assert.Equal(t, "bob", p.Name)

	title, err := uref.LookupMember(pt, "Title")
	require.NoError(t, err)
	require.NoError(t, title.Set(reflect.ValueOf(p), reflect.ValueOf("prof")))
	assert.Equal(t, "prof", p.title)

	greet, err := uref.LookupMember(pt, "Greeting")
	require.NoError(t, err)
	assert.ErrorIs(t, greet.Set(reflect.ValueOf(p), reflect.ValueOf("x")), uref.ErrMemberNotWritable)

	assert.ErrorIs(t, name.Set(reflect.ValueOf(Person{}), reflect.ValueOf("x")), uref.ErrMemberNotWritable,
		"value copy is not addressable")
}

func TestMembers_Cache(t *testing.T) {
	mc := uref.NewMembers(config.NewConfig(config.WithBigCacheLimit(2)))
	assert.Equal(t, policy.LRU, mc.Policy())

	for _, n := range []string{"Name", "Age", "Greeting"} {
		_, err := mc.Lookup(reflect.TypeOf(&Person{}), n)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mc.Len())

	_, err := mc.Lookup(reflect.TypeOf(Person{}), "Missing")
	assert.ErrorIs(t, err, uref.ErrMemberNotFound)
	_, err = mc.Lookup(reflect.TypeOf(Person{}), "Missing")
	assert.ErrorIs(t, err, uref.ErrMemberNotFound, "negative results are cached too")

	_, err = mc.Lookup(nil, "Name")
	assert.ErrorIs(t, err, uref.ErrReflectNilType)
}

func TestMembers_NoRetention(t *testing.T) {
	mc := uref.NewMembers(config.NewConfig(config.WithCachePolicy(policy.None)))
	assert.Equal(t, policy.None, mc.Policy())

	m, err := mc.Lookup(reflect.TypeOf(Person{}), "Name")
	require.NoError(t, err)
	assert.Equal(t, "Name", m.Name)
	assert.Zero(t, mc.Len())
}
