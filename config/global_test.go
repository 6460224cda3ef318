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

package config

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/obx/apis"
)

func reset(t *testing.T) {
	t.Helper()
	current.Store(nil)
	t.Cleanup(func() { current.Store(nil) })
}

func TestInit_FirstWriteWins(t *testing.T) {
	reset(t)

	require.False(t, Initialized())
	require.True(t, Init(NewConfig(WithSmallCacheLimit(3))))
	assert.False(t, Init(NewConfig(WithSmallCacheLimit(9))))
	assert.Equal(t, 3, Current().SmallCacheLimit)
}

func TestCurrent_PublishesDefaults(t *testing.T) {
	reset(t)

	assert.Equal(t, DefaultConfig(), Current())
	assert.True(t, Initialized())
	assert.False(t, Init(NewConfig(WithBigCacheLimit(1))))
	assert.Equal(t, DefaultConfig().BigCacheLimit, Current().BigCacheLimit)
}

func TestInit_SanitizesInput(t *testing.T) {
	reset(t)

	require.True(t, Init(apis.Config{MaxUnwrap: -1}))
	got := Current()
	assert.Equal(t, DefaultConfig().SmallCacheLimit, got.SmallCacheLimit)
	assert.Equal(t, DefaultConfig().BigCacheLimit, got.BigCacheLimit)
	assert.Equal(t, DefaultMaxUnwrap, got.MaxUnwrap)
}

func TestInit_Concurrent_SingleWinner(t *testing.T) {
	reset(t)

	workers := runtime.GOMAXPROCS(0) * 4
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if Init(NewConfig(WithSmallCacheLimit(i + 1))) {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
