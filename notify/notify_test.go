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

package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/notify"
	"dirpx.dev/obx/rx"
)

type person struct {
	notify.Source
	name  string
	tags  []string
	attrs map[string]int
}

type log struct {
	events []string
}

func (l *log) watch(prefix string, src rx.Observable[apis.PropertyChange]) rx.Disposable {
	return src.Subscribe(rx.NewObserver(func(pc apis.PropertyChange) {
		l.events = append(l.events, prefix+":"+pc.Name)
	}, nil, nil))
}

func TestSource_SetRaisesAroundAssignment(t *testing.T) {
	p := &person{}
	var seen []string
	p.Changing().Subscribe(rx.NewObserver(func(pc apis.PropertyChange) {
		seen = append(seen, "changing:"+pc.Name+"="+p.name)
		assert.Same(t, p, pc.Sender)
	}, nil, nil))
	p.Changed().Subscribe(rx.NewObserver(func(pc apis.PropertyChange) {
		seen = append(seen, "changed:"+pc.Name+"="+p.name)
	}, nil, nil))

	assert.True(t, notify.Set(&p.Source, p, &p.name, "ann", "Name"))
	assert.False(t, notify.Set(&p.Source, p, &p.name, "ann", "Name"), "same value")

	assert.Equal(t, []string{"changing:Name=", "changed:Name=ann"}, seen)
}

func TestChangedSource_OnlyPostChange(t *testing.T) {
	var src notify.ChangedSource
	var l log
	l.watch("changed", src.Changed())

	var field int
	assert.True(t, notify.Set(&src, nil, &field, 3, "Count"))
	assert.Equal(t, 3, field)
	assert.Equal(t, []string{"changed:Count"}, l.events)

	var _ apis.Notifier = &src
	_, dual := any(&src).(apis.DualNotifier)
	assert.False(t, dual)
}

func TestSetIndexAndKey(t *testing.T) {
	p := &person{tags: []string{"a", "b"}, attrs: map[string]int{}}
	var l log
	l.watch("changing", p.Changing())
	l.watch("changed", p.Changed())

	assert.True(t, notify.SetIndex(&p.Source, p, p.tags, 1, "z", "Tags"))
	assert.False(t, notify.SetIndex(&p.Source, p, p.tags, 1, "z", "Tags"))
	assert.Equal(t, []string{"a", "z"}, p.tags)

	assert.True(t, notify.SetKey(&p.Source, p, p.attrs, "k", 0, "Attrs"), "missing entry counts as a change")
	assert.False(t, notify.SetKey(&p.Source, p, p.attrs, "k", 0, "Attrs"))

	assert.Equal(t, []string{
		"changing:Tags[]", "changed:Tags[]",
		"changing:Attrs[]", "changed:Attrs[]",
	}, l.events)
}

func TestSource_DisposeStopsDelivery(t *testing.T) {
	p := &person{}
	var l log
	d := l.watch("changed", p.Changed())

	p.RaiseChanged(p, "A")
	d.Dispose()
	p.RaiseChanged(p, "B")

	assert.Equal(t, []string{"changed:A"}, l.events)
}

func TestPersonImplementsDualNotifier(t *testing.T) {
	var v any = &person{}
	_, ok := v.(apis.DualNotifier)
	assert.True(t, ok)

	v = person{}
	_, ok = v.(apis.Notifier)
	assert.False(t, ok, "value copies do not carry the capability")
}
