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
	"fmt"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/rx"
	"dirpx.dev/obx/subscriber"
)

// WatchOption tunes one observation.
type WatchOption func(*subscriber.Options)

// SkipInitial drops the value produced by establishing the observation.
func SkipInitial() WatchOption {
	return func(o *subscriber.Options) { o.SkipInitial = true }
}

// BeforeChange observes pre-change notifications. Each notification
// reports the value about to be replaced, so the stream runs one change
// behind: the first change re-reads the value the subscription already
// emitted and is suppressed as a duplicate, and the value set by the
// latest change only shows up when the next change starts.
func BeforeChange() WatchOption {
	return func(o *subscriber.Options) { o.BeforeChange = true }
}

// Quiet suppresses the fallback warning for links without notification.
func Quiet() WatchOption {
	return func(o *subscriber.Options) { o.SuppressWarnings = true }
}

// Labeled names the observation in diagnostics.
func Labeled(label string) WatchOption {
	return func(o *subscriber.Options) { o.Label = label }
}

// observe analyzes expr against root and returns the raw leaf stream.
// Analysis failures are returned synchronously.
func observe(ctx *Context, root any, expr string, opts []WatchOption) (rx.Observable[any], apis.Chain, error) {
	if ctx == nil {
		ctx = Default()
	}
	if root == nil {
		return nil, nil, ErrNilRoot
	}
	c, err := ctx.Analyze(root, expr)
	if err != nil {
		return nil, nil, fmt.Errorf("obx: analyze %q: %w", expr, err)
	}
	var o subscriber.Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return subscriber.Subscribe(ctx.deps(), root, c, o), c, nil
}

// WhenAnyValue observes the value at expr below root. The stream emits
// the current value on subscription (unless SkipInitial) and every
// distinct value after that while the path resolves. A value that cannot
// be converted to T terminates the stream with ErrTypeMismatch. A nil
// ctx uses Default().
func WhenAnyValue[T any](ctx *Context, root any, expr string, opts ...WatchOption) (rx.Observable[T], error) {
	src, _, err := observe(ctx, root, expr, opts)
	if err != nil {
		return nil, err
	}
	return rx.Create(func(o rx.Observer[T]) rx.Disposable {
		return src.Subscribe(rx.NewObserver(
			func(v any) {
				out, err := chain.As[T](v)
				if err != nil {
					o.OnError(err)
					return
				}
				o.OnNext(out)
			},
			o.OnError,
			o.OnCompleted,
		))
	}), nil
}

// WhenAny observes expr below root like WhenAnyValue, but emits change
// records whose value is resolved on demand through GetValue.
func WhenAny[S, V any](ctx *Context, root S, expr string, opts ...WatchOption) (rx.Observable[chain.ObservedChange[S, V]], error) {
	if ctx == nil {
		ctx = Default()
	}
	src, c, err := observe(ctx, root, expr, opts)
	if err != nil {
		return nil, err
	}
	return rx.Map(src, func(any) chain.ObservedChange[S, V] {
		return chain.NewObservedChangeWith[S, V](ctx.reader, root, c)
	}), nil
}
