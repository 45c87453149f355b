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

package housekeeping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/server/backend/housekeeping"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := housekeeping.Config{
			Interval:       "1m",
			OptimizeWindow: 10,
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Interval = "hour"
		assert.Error(t, conf1.Validate())

		conf2 := validConf
		conf2.OptimizeWindow = 0
		assert.Error(t, conf2.Validate())

		conf3 := validConf
		conf3.Interval = "-1s"
		assert.Error(t, conf3.Validate())
	})

	t.Run("cron spec test", func(t *testing.T) {
		conf := housekeeping.Config{Interval: "90s", OptimizeWindow: 1}
		spec, err := conf.Spec()
		assert.NoError(t, err)
		assert.Equal(t, "@every 1m30s", spec)
	})
}
