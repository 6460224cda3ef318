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
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetDefault(t *testing.T) {
	t.Helper()
	def.Store(nil)
	t.Cleanup(func() { def.Store(nil) })
}

func TestInit_FirstWriteWins(t *testing.T) {
	resetDefault(t)

	first := New(WithLogger(slog.New(slog.DiscardHandler)))
	assert.True(t, Init(first))
	assert.False(t, Init(New()))
	assert.False(t, Init(nil))
	assert.Same(t, first, Default())
}

func TestDefault_IsBuiltLazilyAndCountsAsAWrite(t *testing.T) {
	resetDefault(t)

	d := Default()
	require.NotNil(t, d)
	assert.Same(t, d, Default())
	assert.False(t, Init(New()))
}

func TestDefault_ConcurrentCallersSeeOneContext(t *testing.T) {
	resetDefault(t)

	workers := runtime.GOMAXPROCS(0) * 4
	var wins atomic.Int32
	seen := make([]*Context, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			if w%2 == 0 && Init(New()) {
				wins.Add(1)
			}
			seen[w] = Default()
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, wins.Load(), int32(1))
	for _, c := range seen {
		assert.Same(t, seen[0], c)
	}
}

func TestWhenAnyValue_NilContextUsesDefault(t *testing.T) {
	resetDefault(t)
	ctx := New(WithLogger(slog.New(slog.DiscardHandler)))
	require.True(t, Init(ctx))

	type plain struct{ N int }
	_, err := WhenAnyValue[int](nil, &plain{N: 1}, "N", Quiet())
	require.NoError(t, err)
	assert.Equal(t, 1, ctx.Analyzer().Len())
}
