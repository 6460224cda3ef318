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

package obx

import (
	"errors"
	"log/slog"
	"reflect"
	"sync/atomic"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/builder"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/config"
	"dirpx.dev/obx/errsink"
	"dirpx.dev/obx/rx"
	"dirpx.dev/obx/subscriber"
)

var (
	// ErrNilRegistry is raised when a builder returns a nil registry.
	ErrNilRegistry = errors.New("obx: builder returned nil registry")
	// ErrNilAnalyzer is raised when a builder returns a nil analyzer.
	ErrNilAnalyzer = errors.New("obx: builder returned nil analyzer")
	// ErrNilRoot is returned when observation is requested on a nil root.
	ErrNilRoot = errors.New("obx: nil root")
	// ErrTypeMismatch is emitted when a leaf value cannot be converted to
	// the requested type.
	ErrTypeMismatch = chain.ErrTypeMismatch
)

// Context owns one set of engine collaborators: configuration, strategy
// registry, expression analyzer, scheduler, logger and error sink.
// A Context is immutable once built and safe for concurrent use.
type Context struct {
	cfg      apis.Config
	env      apis.Env
	sink     errsink.Sink
	bld      apis.Builder
	reg      apis.Registry
	analyzer apis.Analyzer
	reader   *chain.Reader
}

// Option configures a Context built by New.
type Option func(*settings)

type settings struct {
	cfg        []config.Option
	env        apis.Env
	sink       errsink.Sink
	bld        apis.Builder
	strategies []apis.Strategy
}

// WithConfig builds the context configuration from opts instead of using
// the process-wide configuration.
func WithConfig(opts ...config.Option) Option {
	return func(s *settings) { s.cfg = append(s.cfg, opts...) }
}

// WithScheduler sets the scheduler fallback snapshots are delivered on.
func WithScheduler(sched rx.Scheduler) Option {
	return func(s *settings) { s.env.Scheduler = sched }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.env.Logger = l }
}

// WithErrorSink sets the sink panics escaping a pipeline are routed to.
// Without it the process-wide errsink is used.
func WithErrorSink(sink errsink.Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithRecorder sets the counter recorder, e.g. a metrics.Recorder.
func WithRecorder(rec apis.Recorder) Option {
	return func(s *settings) { s.env.Recorder = rec }
}

// WithBuilder replaces the builder composing the registry and analyzer.
func WithBuilder(b apis.Builder) Option {
	return func(s *settings) { s.bld = b }
}

// WithStrategies registers host strategies after the built-in ones.
func WithStrategies(strategies ...apis.Strategy) Option {
	return func(s *settings) { s.strategies = append(s.strategies, strategies...) }
}

// New builds a Context. It panics with ErrNilRegistry or ErrNilAnalyzer
// when the builder returns nil, and with the registration error when a
// strategy passed to WithStrategies cannot be registered.
func New(opts ...Option) *Context {
	var s settings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	if s.bld == nil {
		s.bld = builder.New()
	}
	return build(s, config.Current(), nil, nil)
}

// build composes a Context from s. Config options in s replace base.
func build(s settings, base apis.Config, prevReg apis.Registry, prevAn apis.Analyzer) *Context {
	cfg := base
	if len(s.cfg) > 0 {
		cfg = config.NewConfig(s.cfg...)
	}
	env := s.env.WithDefaults()

	reg := s.bld.BuildRegistry(cfg, prevReg, env)
	if reg == nil {
		panic(ErrNilRegistry)
	}
	an := s.bld.BuildAnalyzer(cfg, prevAn, env)
	if an == nil {
		panic(ErrNilAnalyzer)
	}
	for _, st := range s.strategies {
		if err := reg.Register(st); err != nil {
			panic(err)
		}
	}
	return &Context{
		cfg:      cfg,
		env:      env,
		sink:     s.sink,
		bld:      s.bld,
		reg:      reg,
		analyzer: an,
		reader:   chain.NewReader(cfg),
	}
}

// Config returns the context configuration.
func (c *Context) Config() apis.Config { return c.cfg }

// Registry returns the strategy registry.
func (c *Context) Registry() apis.Registry { return c.reg }

// Analyzer returns the expression analyzer.
func (c *Context) Analyzer() apis.Analyzer { return c.analyzer }

// Scheduler returns the scheduler fallback snapshots are delivered on.
func (c *Context) Scheduler() rx.Scheduler { return c.env.Scheduler }

// Logger returns the diagnostics logger.
func (c *Context) Logger() *slog.Logger { return c.env.Logger }

// Recorder returns the counter recorder.
func (c *Context) Recorder() apis.Recorder { return c.env.Recorder }

// ErrorSink returns the context sink, or the process-wide one.
func (c *Context) ErrorSink() errsink.Sink {
	if c.sink != nil {
		return c.sink
	}
	return errsink.Current()
}

// Register adds a host strategy to the context registry.
func (c *Context) Register(s apis.Strategy) error {
	return c.reg.Register(s)
}

// Analyze parses and validates expr against root's type.
func (c *Context) Analyze(root any, expr string) (apis.Chain, error) {
	return c.analyzer.Analyze(reflect.TypeOf(root), expr)
}

// Resolve returns the strategy observing property on values of type t.
func (c *Context) Resolve(t reflect.Type, property string, beforeChanged bool) (apis.Strategy, error) {
	return c.reg.Resolve(t, property, beforeChanged)
}

// With returns a copy of c rebuilt with opts applied on top of the
// settings c was built with. Host strategies registered on c are carried
// over by the builder.
func (c *Context) With(opts ...Option) *Context {
	s := settings{env: c.env, sink: c.sink, bld: c.bld}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.bld == nil {
		s.bld = builder.New()
	}
	return build(s, c.cfg, c.reg, c.analyzer)
}

func (c *Context) deps() subscriber.Deps {
	return subscriber.Deps{Registry: c.reg, Config: c.cfg, Reader: c.reader, Env: c.env, Sink: c.sink}
}

// def is the process default context.
var def atomic.Pointer[Context]

// Default returns the process default context, building it with New() on
// first use.
func Default() *Context {
	if c := def.Load(); c != nil {
		return c
	}
	def.CompareAndSwap(nil, New())
	return def.Load()
}

// Init publishes ctx as the process default. Only the first publication
// wins; Init returns false once a default exists, including one built
// lazily by Default.
func Init(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	return def.CompareAndSwap(nil, ctx)
}
