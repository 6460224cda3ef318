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

package strategy

import (
	"reflect"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"

	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/rx"
)

// warnKey identifies a (type, property) pair the fallback warned about.
type warnKey struct {
	t        reflect.Type
	property string
}

// NewFallback creates the last-resort strategy. It qualifies for every
// type, emits one snapshot of the link value on env.Scheduler and never
// notifies again. The first subscription per (type, property) logs one
// warning through env.Logger.
func NewFallback(env apis.Env) apis.QuietStrategy {
	return &fallbackStrategy{
		env:    env.WithDefaults(),
		warned: mapset.NewSet[warnKey](),
	}
}

// fallbackStrategy models "no notification support": the value is a
// snapshot.
type fallbackStrategy struct {
	env apis.Env
	// warned is append-only. Add is an atomic insert-if-absent, so exactly
	// one of any number of concurrent first subscribers logs.
	warned mapset.Set[warnKey]
}

// Ensure fallbackStrategy implements apis.QuietStrategy.
var _ apis.QuietStrategy = (*fallbackStrategy)(nil)

func (*fallbackStrategy) Name() string { return FallbackName }

// Affinity is FallbackAffinity for any type.
func (*fallbackStrategy) Affinity(t reflect.Type, _ string, _ bool) int {
	if t == nil {
		return 0
	}
	return FallbackAffinity
}

// Subscribe warns once per (type, property), then behaves as SubscribeQuiet.
func (f *fallbackStrategy) Subscribe(sender any, link apis.Link, beforeChanged bool) rx.Observable[apis.Change] {
	f.warn(reflect.TypeOf(sender), link.Name())
	return f.SubscribeQuiet(sender, link, beforeChanged)
}

func (f *fallbackStrategy) warn(t reflect.Type, property string) {
	if t == nil || !f.warned.Add(warnKey{t: t, property: property}) {
		return
	}
	f.env.Logger.Warn("obx: property has no change notification, observing a one-time snapshot",
		"type", t.String(),
		"property", property,
		"strategy", FallbackName,
	)
	f.env.Recorder.FallbackWarned(t, property)
}

// SubscribeQuiet schedules one snapshot of link on the environment's
// scheduler. The stream stays open and never completes.
func (f *fallbackStrategy) SubscribeQuiet(sender any, link apis.Link, _ bool) rx.Observable[apis.Change] {
	return rx.Create(func(o rx.Observer[apis.Change]) rx.Disposable {
		var cancelled atomic.Bool
		f.env.Scheduler.Schedule(func() {
			if cancelled.Load() {
				return
			}
			v, err := chain.ReadLink(sender, link)
			o.OnNext(apis.Change{
				Sender:   sender,
				Link:     link,
				Property: link.Name(),
				Value:    v,
				Resolved: err == nil,
			})
		})
		return rx.DisposableFunc(func() { cancelled.Store(true) })
	})
}

// Warned reports whether a warning was already logged for (t, property).
func Warned(s apis.Strategy, t reflect.Type, property string) bool {
	f, ok := s.(*fallbackStrategy)
	return ok && f.warned.Contains(warnKey{t: t, property: property})
}
