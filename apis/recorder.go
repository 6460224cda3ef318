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

package apis

import "reflect"

// Cache names reported to Recorder.CacheLookup.
const (
	CacheExpressions = "expressions"
	CacheResolutions = "resolutions"
	CacheMembers     = "members"
)

// Recorder receives engine counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CacheLookup(cache string, hit bool)
	StrategyResolved(strategy string, beforeChanged bool)
	FallbackWarned(t reflect.Type, property string)
	Relinked(depth int)
	Emitted()
}

// NopRecorder discards everything.
type NopRecorder struct{}

// Ensure NopRecorder implements Recorder.
var _ Recorder = NopRecorder{}

func (NopRecorder) CacheLookup(string, bool)            {}
func (NopRecorder) StrategyResolved(string, bool)       {}
func (NopRecorder) FallbackWarned(reflect.Type, string) {}
func (NopRecorder) Relinked(int)                        {}
func (NopRecorder) Emitted()                            {}
