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

package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/server/backend"
)

func newValidBackendConf() backend.Config {
	return backend.Config{
		MaxSnapshots:      50,
		ThumbnailWidth:    160,
		MaxUploadBytes:    1 << 20,
		PageInfoCacheSize: 10,
		PageInfoCacheTTL:  "10m",
	}
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := newValidBackendConf()
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.MaxSnapshots = 0
		assert.ErrorIs(t, conf1.Validate(), backend.ErrInvalidMaxSnapshots)

		conf2 := validConf
		conf2.ThumbnailWidth = -1
		assert.ErrorIs(t, conf2.Validate(), backend.ErrInvalidThumbnailWidth)

		conf3 := validConf
		conf3.MaxUploadBytes = 0
		assert.ErrorIs(t, conf3.Validate(), backend.ErrInvalidMaxUploadBytes)

		conf4 := validConf
		conf4.PageInfoCacheTTL = "10 minutes"
		assert.Error(t, conf4.Validate())

		conf5 := validConf
		conf5.CacheStatsInterval = "often"
		assert.Error(t, conf5.Validate())
	})

	t.Run("parse test", func(t *testing.T) {
		validConf := newValidBackendConf()

		assert.Equal(t, "10m0s", validConf.ParsePageInfoCacheTTL().String())
		assert.Equal(t, "0s", validConf.ParseCacheStatsInterval().String())

		validConf.CacheStatsInterval = "1m"
		assert.Equal(t, "1m0s", validConf.ParseCacheStatsInterval().String())
	})
}
