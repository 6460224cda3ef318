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

package subscriber_test

import (
	"log/slog"
	"sync"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/cache/policy"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/config"
	"dirpx.dev/obx/errsink"
	"dirpx.dev/obx/notify"
	"dirpx.dev/obx/registry"
	"dirpx.dev/obx/rx"
	"dirpx.dev/obx/strategy"
	"dirpx.dev/obx/subscriber"
)

// Leaf is the bottom of the a.b.c fixture graph.
type Leaf struct {
	notify.Source
	value string
}

func (c *Leaf) Value() string     { return c.value }
func (c *Leaf) SetValue(v string) { notify.Set(&c.Source, c, &c.value, v, "Value") }

// Mid holds a Leaf.
type Mid struct {
	notify.Source
	leaf *Leaf
}

func (b *Mid) Leaf() *Leaf     { return b.leaf }
func (b *Mid) SetLeaf(v *Leaf) { notify.Set(&b.Source, b, &b.leaf, v, "Leaf") }

// Top holds a Mid, a plain object, a list and a map.
type Top struct {
	notify.Source
	mid   *Mid
	plain *Plain
	items []string
	tags  map[string]string
	Any   any
}

func (a *Top) Mid() *Mid               { return a.mid }
func (a *Top) Plain() *Plain           { return a.plain }
func (a *Top) Items() []string         { return a.items }
func (a *Top) Tags() map[string]string { return a.tags }

func (a *Top) SetMid(v *Mid) {
	notify.Set(&a.Source, a, &a.mid, v, "Mid")
}

func (a *Top) SetPlain(v *Plain) {
	notify.Set(&a.Source, a, &a.plain, v, "Plain")
}

func (a *Top) SetItem(i int, v string) {
	notify.SetIndex(&a.Source, a, a.items, i, v, "Items")
}

func (a *Top) SetTag(k, v string) {
	notify.SetKey(&a.Source, a, a.tags, k, v, "Tags")
}

// Append replaces the list, which raises the bare member name.
func (a *Top) Append(v string) {
	a.items = append(a.items, v)
	a.RaiseChanged(a, "Items")
}

// Plain has no notification capability.
type Plain struct {
	Name string
}

func graph(v string) (*Top, *Mid, *Leaf) {
	c := &Leaf{value: v}
	b := &Mid{leaf: c}
	a := &Top{mid: b, tags: map[string]string{}}
	return a, b, c
}

// counter records what the engine reports.
type counter struct {
	apis.NopRecorder
	mu       sync.Mutex
	emitted  int
	relinked map[int]int
}

func (c *counter) Emitted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitted++
}

func (c *counter) Relinked(depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.relinked == nil {
		c.relinked = map[int]int{}
	}
	c.relinked[depth]++
}

func newDeps(logger *slog.Logger, strategies ...apis.Strategy) (subscriber.Deps, *counter) {
	rec := &counter{}
	e := apis.Env{Logger: logger, Recorder: rec}
	if logger == nil {
		e.Logger = slog.New(slog.DiscardHandler)
	}
	cfg := config.NewConfig(config.WithCachePolicy(policy.LRU))
	reg := registry.New(cfg, e)
	if strategies == nil {
		strategies = []apis.Strategy{strategy.NewDual(), strategy.NewConventional(), strategy.NewFallback(e)}
	}
	for _, s := range strategies {
		if err := reg.Register(s); err != nil {
			panic(err)
		}
	}
	return subscriber.Deps{
		Registry: reg,
		Config:   cfg,
		Env:      e,
		Sink:     errsink.Func(func(err error) { panic(err) }),
	}, rec
}

// recorded collects the notifications of a leaf stream.
type recorded struct {
	mu     sync.Mutex
	values []any
	errs   []error
	done   bool
}

func (r *recorded) OnNext(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorded) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorded) OnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
}

func (r *recorded) Values() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

func (r *recorded) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func watch(deps subscriber.Deps, root any, expr string, opts subscriber.Options) (*recorded, rx.Disposable) {
	r := &recorded{}
	d := subscriber.Subscribe(deps, root, chain.MustParse(expr), opts).Subscribe(r)
	return r, d
}
