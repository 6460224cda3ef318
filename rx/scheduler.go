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

import "sync"

// Scheduler runs actions on some execution context.
type Scheduler interface {
	Schedule(action func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(action func())

// Schedule satisfies the Scheduler interface.
func (f SchedulerFunc) Schedule(action func()) {
	if f == nil || action == nil {
		return
	}
	f(action)
}

// Immediate runs every action synchronously on the calling goroutine.
var Immediate Scheduler = immediate{}

type immediate struct{}

func (immediate) Schedule(action func()) {
	if action != nil {
		action()
	}
}

// EventLoop runs actions one at a time, in FIFO order, on a dedicated
// goroutine. It plays the role of a main/UI loop for hosts that want all
// fallback and error-sink deliveries serialized on one goroutine.
type EventLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewEventLoop starts an EventLoop.
func NewEventLoop() *EventLoop {
	l := &EventLoop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Schedule enqueues action. Actions scheduled after Close are dropped.
func (l *EventLoop) Schedule(action func()) {
	if action == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, action)
	l.mu.Unlock()
	l.cond.Signal()
}

// Close stops accepting actions, runs the ones already queued and waits
// for the loop goroutine to exit. It must not be called from an action.
func (l *EventLoop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cond.Broadcast()
	<-l.done
}

func (l *EventLoop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		next := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		next()
	}
}
