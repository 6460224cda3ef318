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

// Package metrics exports engine counters to Prometheus.
package metrics

import (
	"reflect"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dirpx.dev/obx/apis"
)

// Label values of the "result" and "direction" labels.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	DirectionBefore = "before"
	DirectionAfter  = "after"
)

// Recorder is an apis.Recorder backed by Prometheus counters.
type Recorder struct {
	lookups     *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	warnings    prometheus.Counter
	relinks     *prometheus.CounterVec
	emissions   prometheus.Counter
}

// Ensure Recorder implements apis.Recorder.
var _ apis.Recorder = (*Recorder)(nil)

// NewRecorder registers the obx counters with reg. A nil reg registers
// with prometheus.DefaultRegisterer. Registering twice with the same
// registerer panics.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "obx_cache_lookups_total",
			Help: "Cache lookups by cache and result",
		}, []string{"cache", "result"}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "obx_strategy_resolutions_total",
			Help: "Strategy resolutions by winning strategy and direction",
		}, []string{"strategy", "direction"}),
		warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "obx_fallback_warnings_total",
			Help: "Properties observed through the snapshot fallback",
		}),
		relinks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "obx_chain_relinks_total",
			Help: "Chain levels re-attached, by depth",
		}, []string{"depth"}),
		emissions: f.NewCounter(prometheus.CounterOpts{
			Name: "obx_chain_emissions_total",
			Help: "Leaf values delivered to subscribers",
		}),
	}
}

func (r *Recorder) CacheLookup(cache string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	r.lookups.WithLabelValues(cache, result).Inc()
}

func (r *Recorder) StrategyResolved(strategy string, beforeChanged bool) {
	direction := DirectionAfter
	if beforeChanged {
		direction = DirectionBefore
	}
	r.resolutions.WithLabelValues(strategy, direction).Inc()
}

// FallbackWarned counts warnings only; type names would make the label
// set unbounded.
func (r *Recorder) FallbackWarned(reflect.Type, string) { r.warnings.Inc() }

func (r *Recorder) Relinked(depth int) { r.relinks.WithLabelValues(strconv.Itoa(depth)).Inc() }

func (r *Recorder) Emitted() { r.emissions.Inc() }
