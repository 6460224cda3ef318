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

package rx

import (
	"sync"
	"sync/atomic"
)

// Subject is a concurrency-safe multicast Observable and Observer.
// Observers are notified in subscription order. The zero value is ready
// to use.
type Subject[T any] struct {
	mu   sync.Mutex
	subs []*subjectSub[T]
	done bool
	err  error
}

type subjectSub[T any] struct {
	o        Observer[T]
	disposed atomic.Bool
}

// NewSubject returns an empty Subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers o. A subject that already terminated replays the
// terminal notification and returns Nop.
func (s *Subject[T]) Subscribe(o Observer[T]) Disposable {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			o.OnError(err)
		} else {
			o.OnCompleted()
		}
		return Nop
	}
	sub := &subjectSub[T]{o: o}
	next := make([]*subjectSub[T], len(s.subs), len(s.subs)+1)
	copy(next, s.subs)
	s.subs = append(next, sub)
	s.mu.Unlock()

	return NewDisposable(func() { s.remove(sub) })
}

func (s *Subject[T]) remove(sub *subjectSub[T]) {
	sub.disposed.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.subs {
		if cur != sub {
			continue
		}
		next := make([]*subjectSub[T], 0, len(s.subs)-1)
		next = append(next, s.subs[:i]...)
		next = append(next, s.subs[i+1:]...)
		s.subs = next
		return
	}
}

// HasObservers reports whether any observer is subscribed.
func (s *Subject[T]) HasObservers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

// OnNext delivers v to every current observer.
// An observer disposed while delivery is in progress is skipped.
func (s *Subject[T]) OnNext(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.disposed.Load() {
			continue
		}
		sub.o.OnNext(v)
	}
}

// OnError terminates the subject with err.
func (s *Subject[T]) OnError(err error) {
	subs, ok := s.terminate(err)
	if !ok {
		return
	}
	for _, sub := range subs {
		if !sub.disposed.Load() {
			sub.o.OnError(err)
		}
	}
}

// OnCompleted terminates the subject.
func (s *Subject[T]) OnCompleted() {
	subs, ok := s.terminate(nil)
	if !ok {
		return
	}
	for _, sub := range subs {
		if !sub.disposed.Load() {
			sub.o.OnCompleted()
		}
	}
}

func (s *Subject[T]) terminate(err error) ([]*subjectSub[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, false
	}
	s.done = true
	s.err = err
	subs := s.subs
	s.subs = nil
	return subs, true
}
