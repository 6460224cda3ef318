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

// Package rx provides the minimal push-based primitives the observation
// engine is built on: observers, observables, subjects, disposables and
// schedulers.
//
// rx is not an operator library. It carries exactly what the engine needs
// to compose per-link notification streams (Create, Never, Filter, Map) and
// leaves everything else to the host.
//
// # Contract
//
// Observers receive zero or more OnNext calls followed by at most one
// terminal call (OnError or OnCompleted). Observables built with Create
// enforce this: calls after a terminal notification are dropped and the
// upstream Disposable is released.
package rx

import (
	"sync/atomic"

	"dirpx.dev/obx/errsink"
)

// Observer receives notifications from an Observable.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnCompleted()
}

// Observable is a push-based stream of values.
type Observable[T any] interface {
	// Subscribe registers o and returns a Disposable that detaches it.
	Subscribe(o Observer[T]) Disposable
}

// Func adapts a subscribe function to the Observable interface.
type Func[T any] func(o Observer[T]) Disposable

// Subscribe satisfies the Observable interface. The observer is wrapped so
// that the terminal-notification contract holds.
func (f Func[T]) Subscribe(o Observer[T]) Disposable {
	safe := &safeObserver[T]{inner: o}
	d := f(safe)
	if d == nil {
		d = Nop
	}
	safe.upstream.Store(&d)
	if safe.stopped.Load() {
		d.Dispose()
	}
	return NewDisposable(func() {
		safe.stopped.Store(true)
		d.Dispose()
	})
}

// Create returns an Observable whose subscriptions run fn.
func Create[T any](fn func(o Observer[T]) Disposable) Observable[T] {
	return Func[T](fn)
}

// Never returns an Observable that never emits and never completes.
func Never[T any]() Observable[T] {
	return Func[T](func(Observer[T]) Disposable { return Nop })
}

// Filter forwards the values of src for which pred returns true.
func Filter[T any](src Observable[T], pred func(T) bool) Observable[T] {
	return Func[T](func(o Observer[T]) Disposable {
		return src.Subscribe(NewObserver(
			func(v T) {
				if pred(v) {
					o.OnNext(v)
				}
			},
			o.OnError,
			o.OnCompleted,
		))
	})
}

// Map projects every value of src through fn.
func Map[T, U any](src Observable[T], fn func(T) U) Observable[U] {
	return Func[U](func(o Observer[U]) Disposable {
		return src.Subscribe(NewObserver(
			func(v T) { o.OnNext(fn(v)) },
			o.OnError,
			o.OnCompleted,
		))
	})
}

// NewObserver builds an Observer from callbacks. Any callback may be nil.
// With a nil onError, errors are routed to the process-wide error sink.
func NewObserver[T any](onNext func(T), onError func(error), onCompleted func()) Observer[T] {
	return &funcObserver[T]{next: onNext, err: onError, done: onCompleted}
}

type funcObserver[T any] struct {
	next func(T)
	err  func(error)
	done func()
}

func (o *funcObserver[T]) OnNext(v T) {
	if o.next != nil {
		o.next(v)
	}
}

func (o *funcObserver[T]) OnError(err error) {
	if o.err != nil {
		o.err(err)
		return
	}
	errsink.Report(err)
}

func (o *funcObserver[T]) OnCompleted() {
	if o.done != nil {
		o.done()
	}
}

// safeObserver drops notifications after a terminal one and releases the
// upstream subscription when it stops.
type safeObserver[T any] struct {
	inner    Observer[T]
	stopped  atomic.Bool
	upstream atomic.Pointer[Disposable]
}

func (s *safeObserver[T]) OnNext(v T) {
	if s.stopped.Load() {
		return
	}
	s.inner.OnNext(v)
}

func (s *safeObserver[T]) OnError(err error) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.inner.OnError(err)
	s.release()
}

func (s *safeObserver[T]) OnCompleted() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}
	s.inner.OnCompleted()
	s.release()
}

func (s *safeObserver[T]) release() {
	if d := s.upstream.Load(); d != nil {
		(*d).Dispose()
	}
}
