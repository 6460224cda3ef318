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

// Package subscriber composes per-link strategy subscriptions along a
// chain into a single stream of leaf values.
//
// Every level k of a chain of N links observes link k on the object held
// by link k-1 (the root for k == 0). A notification at level k re-reads
// link k, tears levels k+1..N-1 down and re-attaches them to the new
// object. A nil object before the leaf breaks the chain: nothing deeper is
// attached and nothing is emitted until an upper level heals it.
//
// All work of one subscription runs through a serial queue, so delivery
// is sequential even when sources notify from several goroutines, and an
// upper-level change is fully processed before the re-link it causes.
package subscriber

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/errsink"
	"dirpx.dev/obx/rx"
	uref "dirpx.dev/obx/utils/reflect"
)

// ErrPanic wraps a panic recovered while delivering a notification.
var ErrPanic = errors.New("obx(subscriber): panic in observation pipeline")

// Deps are the collaborators a subscription resolves and reports through.
type Deps struct {
	// Registry resolves one strategy per level.
	Registry apis.Registry
	// Config bounds transient read retries (MaxResolveRetries).
	Config apis.Config
	// Reader reads link values. Defaults to a reader built from Config.
	Reader *chain.Reader
	// Env carries the logger and recorder.
	Env apis.Env
	// Sink receives panics escaping the pipeline. Defaults to
	// errsink.Current().
	Sink errsink.Sink
}

// Options tune one subscription.
type Options struct {
	// BeforeChange observes pre-change notifications instead of
	// post-change ones. The values read are the ones being replaced, so
	// with duplicate suppression the stream lags one change behind.
	BeforeChange bool
	// SkipInitial swallows the value produced by establishing the
	// subscription; only later changes are emitted.
	SkipInitial bool
	// SuppressWarnings subscribes quietly to strategies that would log a
	// diagnostic warning.
	SuppressWarnings bool
	// Label names the subscription in diagnostics. Defaults to the path.
	Label string
}

// Subscribe returns the leaf-value stream of c rooted at root. The stream
// emits when every link before the leaf resolves to a non-nil object (the
// leaf itself may be nil) and suppresses consecutive duplicates. A broken
// chain resets duplicate suppression, so a healed chain always emits.
//
// Transient read failures (chain.IsTransient) are retried up to
// Config.MaxResolveRetries times, then treated as a broken chain. Any other
// failure, including a resolution error of the registry, terminates the
// stream through OnError.
func Subscribe(deps Deps, root any, c apis.Chain, opts Options) rx.Observable[any] {
	deps.Env = deps.Env.WithDefaults()
	if deps.Sink == nil {
		deps.Sink = errsink.Current()
	}
	if deps.Reader == nil {
		deps.Reader = chain.NewReader(deps.Config)
	}
	if opts.Label == "" {
		opts.Label = c.String()
	}
	return rx.Create(func(o rx.Observer[any]) rx.Disposable {
		if len(c) == 0 {
			o.OnError(fmt.Errorf("%w: empty chain", chain.ErrUnsupportedElement))
			return rx.Nop
		}
		id := uuid.New()
		s := &session{
			deps:   deps,
			opts:   opts,
			chain:  c,
			root:   root,
			out:    o,
			logger: deps.Env.Logger.With("subscription", id.String(), "label", opts.Label),
			levels: make([]level, len(c)),
		}
		s.logger.Debug("obx: subscribing", "path", c.String(), "before", opts.BeforeChange)
		s.enqueue(s.start)
		return s
	})
}

// level is the attachment state of one link.
type level struct {
	// gen identifies the attachment; zero means detached. Events carrying
	// another generation are stale.
	gen    uint64
	sender any
	sub    rx.Disposable
	// primed holds until the first event of the attachment; snap is the
	// value attach read. A first Resolved event equal to snap is the
	// strategy's own initial snapshot.
	primed bool
	snap   any
}

type session struct {
	deps   Deps
	opts   Options
	chain  apis.Chain
	root   any
	out    rx.Observer[any]
	logger *slog.Logger

	// Owned by the queue drainer.
	levels       []level
	gen          uint64
	initializing bool
	hasLast      bool
	last         any
	done         bool

	mu       sync.Mutex
	queue    []func()
	draining bool

	disposed atomic.Bool
}

// enqueue runs fn on the serial queue. The caller drains the queue when it
// is idle; reentrant and concurrent calls only append.
//
// A panic escaping run (a rethrowing error sink) releases the drainer
// role and leaves the rest of the queue to the next enqueue.
func (s *session) enqueue(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	idle := false
	defer func() {
		if !idle {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining, idle = false, true
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.run(next)
	}
}

func (s *session) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w (%s): %v", ErrPanic, s.opts.Label, r)
			s.logger.Error("obx: recovered panic", "error", err)
			s.deps.Sink.OnError(err)
		}
	}()
	fn()
}

func (s *session) start() {
	if s.disposed.Load() {
		return
	}
	s.initializing = true
	defer func() { s.initializing = false }()
	s.attach(0, s.root)
}

// attach observes link k on obj, replacing whatever levels k..N-1 held.
func (s *session) attach(k int, obj any) {
	s.detach(k)
	if s.done || s.disposed.Load() {
		return
	}
	if uref.IsNil(reflect.ValueOf(obj)) {
		s.broken(k)
		return
	}

	link := s.chain[k]
	t := reflect.TypeOf(obj)
	strat, err := s.deps.Registry.Resolve(t, link.Name(), s.opts.BeforeChange)
	if err != nil {
		s.fail(err)
		return
	}

	s.gen++
	gen := s.gen
	lv := &s.levels[k]
	lv.gen, lv.sender = gen, obj

	var src rx.Observable[apis.Change]
	if q, ok := strat.(apis.QuietStrategy); ok && s.opts.SuppressWarnings {
		src = q.SubscribeQuiet(obj, link, s.opts.BeforeChange)
	} else {
		src = strat.Subscribe(obj, link, s.opts.BeforeChange)
	}
	s.logger.Debug("obx: link attached",
		"depth", k, "link", link.String(), "type", t.String(), "strategy", strat.Name())

	lv.sub = src.Subscribe(rx.NewObserver(
		func(c apis.Change) {
			s.enqueue(func() { s.changed(k, gen, c) })
		},
		func(err error) {
			s.enqueue(func() {
				if s.levels[k].gen == gen {
					s.fail(err)
				}
			})
		},
		nil,
	))
	if v, ok := s.evaluate(k); ok && s.levels[k].gen == gen {
		s.levels[k].primed, s.levels[k].snap = true, v
	}
}

// detach disposes levels k..N-1, deepest first.
func (s *session) detach(k int) {
	for i := len(s.levels) - 1; i >= k; i-- {
		lv := &s.levels[i]
		if lv.sub != nil {
			lv.sub.Dispose()
		}
		*lv = level{}
	}
}

// changed handles a notification of level k.
func (s *session) changed(k int, gen uint64, c apis.Change) {
	lv := &s.levels[k]
	if s.done || s.disposed.Load() || lv.gen != gen {
		return
	}
	primed, snap := lv.primed, lv.snap
	lv.primed, lv.snap = false, nil
	if primed && c.Resolved && same(snap, c.Value) {
		return
	}
	s.evaluate(k)
}

// evaluate reads link k and either emits the leaf or re-links level k+1.
// It reports the value read, if any.
func (s *session) evaluate(k int) (any, bool) {
	v, err := s.read(s.levels[k].sender, s.chain[k])
	switch {
	case err == nil:
	case chain.IsTransient(err), errors.Is(err, chain.ErrBrokenChain):
		s.detach(k + 1)
		s.broken(k + 1)
		return nil, false
	default:
		s.fail(&chain.ResolveError{Path: s.chain.String(), Segment: s.chain[k].String(), Index: k, Err: err})
		return nil, false
	}

	if k == len(s.chain)-1 {
		s.emit(v)
		return v, true
	}
	s.deps.Env.Recorder.Relinked(k + 1)
	s.attach(k+1, v)
	return v, true
}

// read reads link off sender, retrying transient failures.
func (s *session) read(sender any, link apis.Link) (any, error) {
	v, err := s.deps.Reader.ReadLink(sender, link)
	for i := 0; err != nil && chain.IsTransient(err) && i < s.deps.Config.MaxResolveRetries; i++ {
		v, err = s.deps.Reader.ReadLink(sender, link)
	}
	return v, err
}

// broken records that the chain cannot reach the leaf from level k.
func (s *session) broken(k int) {
	if s.hasLast {
		s.logger.Debug("obx: chain broken", "depth", k)
	}
	s.hasLast, s.last = false, nil
}

func (s *session) emit(v any) {
	if s.hasLast && same(s.last, v) {
		return
	}
	s.hasLast, s.last = true, v
	if s.initializing && s.opts.SkipInitial {
		return
	}
	if s.done || s.disposed.Load() {
		return
	}
	s.deps.Env.Recorder.Emitted()
	s.out.OnNext(v)
}

// fail terminates the stream.
func (s *session) fail(err error) {
	if s.done {
		return
	}
	s.done = true
	s.detach(0)
	if s.disposed.Load() {
		return
	}
	s.logger.Debug("obx: subscription failed", "error", err)
	s.out.OnError(err)
}

// Dispose stops emissions and tears every level down. No OnNext starts
// after Dispose returns.
func (s *session) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.enqueue(func() {
		s.detach(0)
		s.logger.Debug("obx: subscription disposed")
	})
}

// same compares leaf values: == for comparable dynamic types, deep
// equality otherwise.
func same(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	defer func() {
		// Interface-typed fields may hold incomparable values.
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
