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

// Package errsink holds the process-wide fallback observer for errors that
// escape every bound pipeline.
//
// The sink is initialized at most once. Install publishes a host-supplied
// sink if nothing has been published yet; Current lazily publishes the
// default sink on first use. Both use a single atomic compare-and-swap, so
// the first writer wins and later writes are no-ops.
package errsink

import (
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
)

// ErrNilError is reported when a nil error is routed to the sink.
var ErrNilError = errors.New("obx(errsink): nil error routed to sink")

// Sink receives errors that no subscriber handled.
type Sink interface {
	OnError(err error)
}

// Func adapts a function to the Sink interface.
type Func func(err error)

// OnError satisfies the Sink interface.
func (f Func) OnError(err error) {
	if f == nil {
		return
	}
	f(err)
}

// Scheduler is the subset of rx.Scheduler the default sink depends on.
type Scheduler interface {
	Schedule(action func())
}

// UnhandledError is the panic value raised by the default sink.
type UnhandledError struct {
	Err error
}

func (e *UnhandledError) Error() string {
	return "obx(errsink): unhandled error in bound pipeline: " + e.Err.Error()
}

func (e *UnhandledError) Unwrap() error { return e.Err }

// Default returns the default sink. It logs the error, breaks into an
// attached debugger, and then panics with *UnhandledError on sched.
// A nil sched panics in the goroutine that reported the error.
func Default(sched Scheduler, logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &defaultSink{sched: sched, logger: logger, attached: debuggerAttached}
}

type defaultSink struct {
	sched    Scheduler
	logger   *slog.Logger
	attached func() bool
}

func (d *defaultSink) OnError(err error) {
	if err == nil {
		err = ErrNilError
	}
	d.logger.Error("unhandled error in bound pipeline", slog.Any("error", err))
	if d.attached() {
		runtime.Breakpoint()
	}
	fatal := &UnhandledError{Err: err}
	if d.sched == nil {
		panic(fatal)
	}
	d.sched.Schedule(func() { panic(fatal) })
}

// holder boxes a Sink so it can live behind an atomic.Pointer.
type holder struct {
	sink Sink
}

var current atomic.Pointer[holder]

// Install publishes s as the process-wide sink. It returns false if a sink
// was already published (explicitly or by a previous call to Current).
func Install(s Sink) bool {
	if s == nil {
		return false
	}
	return current.CompareAndSwap(nil, &holder{sink: s})
}

// Current returns the process-wide sink, publishing Default(nil, nil) if
// none has been installed yet.
func Current() Sink {
	if h := current.Load(); h != nil {
		return h.sink
	}
	current.CompareAndSwap(nil, &holder{sink: Default(nil, nil)})
	return current.Load().sink
}

// Report routes err to the process-wide sink.
func Report(err error) {
	Current().OnError(err)
}
