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
	"bytes"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/errsink"
	"dirpx.dev/obx/notify"
	"dirpx.dev/obx/registry"
	"dirpx.dev/obx/rx"
	"dirpx.dev/obx/strategy"
	"dirpx.dev/obx/subscriber"
)

func TestSubscribe_EmitsInitialAndLeafChanges(t *testing.T) {
	deps, rec := newDeps(nil)
	a, _, c := graph("c1")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()

	assert.Equal(t, []any{"c1"}, r.Values(), "first resolvable value is emitted on subscribe")

	c.SetValue("c2")
	c.SetValue("c3")
	assert.Equal(t, []any{"c1", "c2", "c3"}, r.Values())
	assert.Empty(t, r.Errors())
	assert.Equal(t, 3, rec.emitted)
}

func TestSubscribe_RelinksOnIntermediateReplacement(t *testing.T) {
	deps, rec := newDeps(nil)
	a, oldB, oldC := graph("old")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()

	newC := &Leaf{value: "new"}
	a.SetMid(&Mid{leaf: newC})
	assert.Equal(t, []any{"old", "new"}, r.Values())

	// The detached objects are no longer observed.
	oldC.SetValue("ignored")
	oldB.SetLeaf(&Leaf{value: "ignored too"})
	assert.Equal(t, []any{"old", "new"}, r.Values())

	newC.SetValue("newer")
	assert.Equal(t, []any{"old", "new", "newer"}, r.Values())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.relinked[1], "initial attach plus replacement")
	assert.Equal(t, 2, rec.relinked[2])
}

func TestSubscribe_NullChainTolerance(t *testing.T) {
	deps, _ := newDeps(nil)
	a := &Top{}

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()
	assert.Empty(t, r.Values())

	b := &Mid{}
	a.SetMid(b)
	assert.Empty(t, r.Values(), "still broken one level down")

	c := &Leaf{value: "v1"}
	b.SetLeaf(c)
	assert.Equal(t, []any{"v1"}, r.Values())

	c.SetValue("v2")
	assert.Equal(t, []any{"v1", "v2"}, r.Values())
	assert.Empty(t, r.Errors(), "a broken chain is not an error")
}

func TestSubscribe_HealedChainReemitsSameValue(t *testing.T) {
	deps, _ := newDeps(nil)
	a, b, _ := graph("same")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()

	a.SetMid(nil)
	a.SetMid(b)
	assert.Equal(t, []any{"same", "same"}, r.Values())
}

func TestSubscribe_SuppressesDuplicates(t *testing.T) {
	deps, _ := newDeps(nil)
	a, b, c := graph("x")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()

	c.RaiseChanged(c, "Value")
	b.RaiseChanged(b, "Leaf")
	a.RaiseChanged(a, "")
	assert.Equal(t, []any{"x"}, r.Values())
}

func TestSubscribe_NilLeafIsEmitted(t *testing.T) {
	deps, _ := newDeps(nil)
	a, b, _ := graph("x")

	r, d := watch(deps, a, "Mid.Leaf", subscriber.Options{})
	defer d.Dispose()

	b.SetLeaf(nil)
	vs := r.Values()
	require.Len(t, vs, 2)
	assert.Nil(t, vs[1].(*Leaf))
}

func TestSubscribe_SkipInitial(t *testing.T) {
	deps, _ := newDeps(nil)

	t.Run("resolvable", func(t *testing.T) {
		a, _, c := graph("initial")
		r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{SkipInitial: true})
		defer d.Dispose()

		assert.Empty(t, r.Values())
		c.SetValue("changed")
		assert.Equal(t, []any{"changed"}, r.Values())
	})

	t.Run("not skipped", func(t *testing.T) {
		a, _, _ := graph("initial")
		r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
		defer d.Dispose()
		assert.Equal(t, []any{"initial"}, r.Values())
	})

	t.Run("broken at start", func(t *testing.T) {
		a := &Top{}
		r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{SkipInitial: true})
		defer d.Dispose()

		a.SetMid(&Mid{leaf: &Leaf{value: "healed"}})
		assert.Equal(t, []any{"healed"}, r.Values())
	})
}

func TestSubscribe_Dispose(t *testing.T) {
	deps, _ := newDeps(nil)
	a, b, c := graph("v")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	d.Dispose()
	d.Dispose()

	c.SetValue("after")
	b.SetLeaf(&Leaf{value: "after"})
	a.SetMid(nil)
	assert.Equal(t, []any{"v"}, r.Values())
}

// probe is a Notifier whose subject can be inspected.
type probe struct {
	changed rx.Subject[apis.PropertyChange]
	Next    *probe
	Value   int
}

func (p *probe) Changed() rx.Observable[apis.PropertyChange] { return &p.changed }

func TestSubscribe_DisposeReleasesEveryLevel(t *testing.T) {
	deps, _ := newDeps(nil)
	leaf := &probe{Value: 1}
	mid := &probe{Next: leaf}
	root := &probe{Next: mid}

	r, d := watch(deps, root, "Next.Next.Value", subscriber.Options{})
	assert.Equal(t, []any{1}, r.Values())
	for _, p := range []*probe{root, mid, leaf} {
		assert.True(t, p.changed.HasObservers())
	}

	d.Dispose()
	for _, p := range []*probe{root, mid, leaf} {
		assert.False(t, p.changed.HasObservers())
	}
}

func TestSubscribe_DisposeFromOnNext(t *testing.T) {
	deps, _ := newDeps(nil)
	a, _, c := graph("a")

	var d rx.Disposable
	var got []any
	d = subscriber.Subscribe(deps, a, chain.MustParse("Mid.Leaf.Value"), subscriber.Options{SkipInitial: true}).
		Subscribe(rx.NewObserver(func(v any) {
			got = append(got, v)
			d.Dispose()
		}, nil, nil))

	c.SetValue("b")
	c.SetValue("c")
	assert.Equal(t, []any{"b"}, got)
}

func TestSubscribe_FallbackLevel(t *testing.T) {
	var buf bytes.Buffer
	deps, _ := newDeps(slog.New(slog.NewTextHandler(&buf, nil)))
	a := &Top{plain: &Plain{Name: "p1"}}

	r, d := watch(deps, a, "Plain.Name", subscriber.Options{})
	defer d.Dispose()
	assert.Equal(t, []any{"p1"}, r.Values())

	// Mutations of a plain object are invisible.
	a.plain.Name = "unseen"
	assert.Equal(t, []any{"p1"}, r.Values())

	// Replacing it through a notifying parent re-reads the snapshot.
	a.SetPlain(&Plain{Name: "p2"})
	assert.Equal(t, []any{"p1", "p2"}, r.Values())

	assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"), "one warning per (type, property)")
}

func TestSubscribe_FallbackSnapshotDoesNotRelink(t *testing.T) {
	deps, rec := newDeps(nil)
	_, b, c := graph("a")
	root := &struct{ Mid *Mid }{Mid: b}

	r, d := watch(deps, root, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()
	c.SetValue("b")
	b.SetLeaf(&Leaf{value: "c"})

	assert.Equal(t, []any{"a", "b", "c"}, r.Values())
	assert.Empty(t, r.Errors())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, map[int]int{1: 1, 2: 2}, rec.relinked)
}

func TestSubscribe_LateSnapshotWithNewValueRelinks(t *testing.T) {
	var pending []func()
	fallback := strategy.NewFallback(apis.Env{
		Logger:    slog.New(slog.DiscardHandler),
		Scheduler: rx.SchedulerFunc(func(action func()) { pending = append(pending, action) }),
	})
	deps, rec := newDeps(nil, strategy.NewDual(), fallback)
	_, b, _ := graph("a")
	root := &struct{ Mid *Mid }{Mid: b}

	r, d := watch(deps, root, "Mid.Leaf.Value", subscriber.Options{})
	defer d.Dispose()
	assert.Equal(t, []any{"a"}, r.Values())

	_, root.Mid, _ = graph("z")
	require.Len(t, pending, 1)
	pending[0]()

	assert.Equal(t, []any{"a", "z"}, r.Values())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.relinked[1], "a snapshot that differs from the attach read re-links")
}

func TestSubscribe_SuppressWarnings(t *testing.T) {
	var buf bytes.Buffer
	deps, _ := newDeps(slog.New(slog.NewTextHandler(&buf, nil)))

	r, d := watch(deps, &Plain{Name: "q"}, "Name", subscriber.Options{SuppressWarnings: true})
	defer d.Dispose()
	assert.Equal(t, []any{"q"}, r.Values())
	assert.NotContains(t, buf.String(), "level=WARN")
}

func TestSubscribe_Indexers(t *testing.T) {
	deps, _ := newDeps(nil)
	a := &Top{items: []string{"i0"}, tags: map[string]string{}}

	items, d1 := watch(deps, a, "Items[1]", subscriber.Options{})
	defer d1.Dispose()
	tags, d2 := watch(deps, a, `Tags["k"]`, subscriber.Options{})
	defer d2.Dispose()

	assert.Empty(t, items.Values(), "index out of range is a broken link")
	assert.Empty(t, tags.Values(), "missing key is a broken link")

	a.Append("i1")
	a.SetItem(1, "i1b")
	a.SetItem(0, "other")
	assert.Equal(t, []any{"i1", "i1b"}, items.Values())

	a.SetTag("k", "v")
	a.SetTag("x", "y")
	assert.Equal(t, []any{"v"}, tags.Values())

	assert.Empty(t, items.Errors())
	assert.Empty(t, tags.Errors())
}

func TestSubscribe_BeforeChange(t *testing.T) {
	deps, _ := newDeps(nil)
	a, _, c := graph("a")

	r, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{BeforeChange: true})
	defer d.Dispose()

	c.SetValue("b")
	c.SetValue("c")
	assert.Equal(t, []any{"a", "b"}, r.Values(), "pre-change reads see the value being replaced")
}

func TestSubscribe_BeforeChangeOnConventionalNeverEmitsChanges(t *testing.T) {
	deps, _ := newDeps(nil)
	leaf := &probe{Value: 1}

	r, d := watch(deps, leaf, "Value", subscriber.Options{BeforeChange: true})
	defer d.Dispose()
	leaf.Value = 2
	leaf.changed.OnNext(apis.PropertyChange{Sender: leaf, Name: "Value"})

	// The fallback qualifies instead of the conventional strategy.
	assert.Equal(t, []any{1}, r.Values())
}

func TestSubscribe_RuntimeErrors(t *testing.T) {
	deps, _ := newDeps(nil)

	t.Run("unknown member behind interface", func(t *testing.T) {
		a := &Top{Any: &Plain{}}
		r, d := watch(deps, a, "Any.Missing", subscriber.Options{})
		defer d.Dispose()

		errs := r.Errors()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], chain.ErrUnknownMember)
		var re *chain.ResolveError
		require.ErrorAs(t, errs[0], &re)
		assert.Equal(t, "Missing", re.Segment)
	})

	t.Run("no strategy", func(t *testing.T) {
		deps, _ := newDeps(nil, strategy.NewDual())
		r, d := watch(deps, &Plain{}, "Name", subscriber.Options{})
		defer d.Dispose()

		errs := r.Errors()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], registry.ErrNoStrategy)
	})

	t.Run("empty chain", func(t *testing.T) {
		r := &recorded{}
		subscriber.Subscribe(deps, &Plain{}, apis.Chain{}, subscriber.Options{}).Subscribe(r)
		require.Len(t, r.Errors(), 1)
		assert.ErrorIs(t, r.Errors()[0], chain.ErrUnsupportedElement)
	})
}

func TestSubscribe_PanicsReachTheSink(t *testing.T) {
	deps, _ := newDeps(nil)
	var sunk []error
	deps.Sink = errsink.Func(func(err error) { sunk = append(sunk, err) })
	a, _, c := graph("a")

	var got []any
	d := subscriber.Subscribe(deps, a, chain.MustParse("Mid.Leaf.Value"), subscriber.Options{Label: "leaf-binding"}).
		Subscribe(rx.NewObserver(func(v any) {
			got = append(got, v)
			if v == "boom" {
				panic("observer exploded")
			}
		}, nil, nil))
	defer d.Dispose()

	c.SetValue("boom")
	c.SetValue("fine")

	require.Len(t, sunk, 1)
	assert.True(t, errors.Is(sunk[0], subscriber.ErrPanic))
	assert.Contains(t, sunk[0].Error(), "leaf-binding")
	assert.Equal(t, []any{"a", "boom", "fine"}, got, "the pipeline survives")
}

func TestSubscribe_SurvivesRethrowingSink(t *testing.T) {
	deps, _ := newDeps(nil)
	a, _, c := graph("Paris")

	var got []any
	d := subscriber.Subscribe(deps, a, chain.MustParse("Mid.Leaf.Value"), subscriber.Options{}).
		Subscribe(rx.NewObserver(func(v any) {
			got = append(got, v)
			if v == "Berlin" {
				panic("observer exploded")
			}
		}, nil, nil))
	defer d.Dispose()

	hostRecovered := func(fn func()) (recovered bool) {
		defer func() { recovered = recover() != nil }()
		fn()
		return false
	}
	require.True(t, hostRecovered(func() { c.SetValue("Berlin") }), "the sink rethrows to the host")

	c.SetValue("Rome")
	c.SetValue("Oslo")
	assert.Equal(t, []any{"Paris", "Berlin", "Rome", "Oslo"}, got)
}

func TestSubscribe_DebugLogsCarrySubscriptionID(t *testing.T) {
	var buf bytes.Buffer
	deps, _ := newDeps(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	a, _, _ := graph("x")

	_, d := watch(deps, a, "Mid.Leaf.Value", subscriber.Options{})
	d.Dispose()

	out := buf.String()
	assert.Contains(t, out, "subscription=")
	assert.Contains(t, out, "label=Mid.Leaf.Value")
	assert.Contains(t, out, "strategy=dual")
	assert.Contains(t, out, "obx: subscription disposed")
}

func TestSubscribe_ConcurrentSourcesDeliverSequentially(t *testing.T) {
	deps, _ := newDeps(nil)
	leaves := make([]*Leaf, 8)
	for i := range leaves {
		leaves[i] = &Leaf{value: "init"}
	}
	b := &Mid{leaf: leaves[0]}
	a := &Top{mid: b}

	var inFlight, overlaps atomic.Int32
	var count atomic.Int32
	d := subscriber.Subscribe(deps, a, chain.MustParse("Mid.Leaf.Value"), subscriber.Options{}).
		Subscribe(rx.NewObserver(func(any) {
			if inFlight.Add(1) > 1 {
				overlaps.Add(1)
			}
			count.Add(1)
			runtime.Gosched()
			inFlight.Add(-1)
		}, nil, nil))
	defer d.Dispose()

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if w%4 == 0 {
					b.RaiseChanged(b, "Leaf")
				} else {
					leaves[0].RaiseChanged(leaves[0], "Value")
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, overlaps.Load())
	assert.Equal(t, int32(1), count.Load(), "nothing changed, nothing re-emitted")
}

// Ensure fixtures satisfy the capabilities they are meant to.
var (
	_ apis.DualNotifier = (*Top)(nil)
	_ apis.Notifier     = (*probe)(nil)
	_ notify.DualRaiser = (*Leaf)(nil)
)
