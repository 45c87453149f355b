/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quire-team/quire/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Run("create test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](1, time.Minute, "test")
		assert.NoError(t, err)
		assert.Equal(t, "test", c.Name())

		c, err = cache.NewLRU[string, int](0, time.Minute, "test")
		assert.ErrorIs(t, err, cache.ErrInvalidMaxSize)
		assert.Nil(t, c)
	})

	t.Run("eviction and stats test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](2, time.Minute, "test")
		require.NoError(t, err)

		c.Add("a", 1)
		c.Add("b", 2)
		c.Add("c", 3)
		assert.Equal(t, 2, c.Len())

		_, ok := c.Get("a")
		assert.False(t, ok)
		v, ok := c.Get("c")
		assert.True(t, ok)
		assert.Equal(t, 3, v)

		assert.Equal(t, int64(1), c.Stats().Hits())
		assert.Equal(t, int64(1), c.Stats().Misses())
		assert.Equal(t, 50.0, c.Stats().HitRate())
	})

	t.Run("expiration test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](2, 10*time.Millisecond, "test")
		require.NoError(t, err)

		c.Add("a", 1)
		assert.Eventually(t, func() bool {
			_, ok := c.Get("a")
			return !ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("get or load test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](2, time.Minute, "test")
		require.NoError(t, err)

		calls := 0
		load := func() (int, error) {
			calls++
			return 7, nil
		}
		for range 3 {
			v, err := c.GetOrLoad("k", load)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}
		assert.Equal(t, 1, calls)

		errLoad := errors.New("load failed")
		_, err = c.GetOrLoad("x", func() (int, error) { return 0, errLoad })
		assert.ErrorIs(t, err, errLoad)
		assert.Equal(t, 1, c.Len())
	})
}
