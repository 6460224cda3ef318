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

// Package obx observes property paths on live object graphs.
//
// Given a root object and a path such as "Owner.Address.City" or
// "Items[2].Name", obx produces a stream of the value at the end of the
// path. The stream follows the path as it changes: when Owner is replaced,
// the observation detaches from the old Address and attaches to the new
// one. Links that resolve to nil break the chain without failing it; the
// stream simply stays silent until an upper link heals.
//
// # Notification strategies
//
// Objects opt into change notification by implementing one of two
// capability interfaces (see package notify for embeddable helpers):
//
//   - apis.DualNotifier: Changing() and Changed() streams. Observed by the
//     "dual" strategy, in both directions.
//
//   - apis.Notifier: Changed() only. Observed by the "conventional"
//     strategy, after changes only.
//
// Every other object is observed by the "fallback" strategy, which reads
// one snapshot and never notifies again. The first use of the fallback
// per (type, property) logs a warning, because a property path that can
// never update is usually a bug.
//
// For each link the registry picks the strategy with the highest
// affinity for the sender's dynamic type, property name and direction
// (dual 10, conventional 5, fallback 1). Hosts may register their own
// strategies; registration order breaks ties.
//
// # Contexts
//
// All collaborators (configuration, strategy registry, expression
// analyzer, scheduler, logger, recorder and error sink) live in an
// immutable Context:
//
//	ctx := obx.New(
//		obx.WithLogger(logger),
//		obx.WithRecorder(metrics.NewRecorder(prometheus.DefaultRegisterer)),
//	)
//	names, err := obx.WhenAnyValue[string](ctx, vm, "Owner.Name")
//
// A nil Context means Default(), which is built lazily from the
// process-wide configuration (config.Current) and error sink
// (errsink.Current). Init publishes a custom default; like the
// configuration and the sink, the first publication wins.
//
// # Errors
//
// Malformed paths, and paths naming members the root type does not have,
// are reported synchronously by WhenAnyValue and WhenAny. Failures that
// can only be observed at runtime (a member missing behind an interface,
// a value that does not convert to the requested type, a link no
// strategy can observe) terminate the stream through OnError. Panics
// escaping an observer are recovered and routed to the error sink.
package obx
