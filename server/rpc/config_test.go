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

package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/server/rpc"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := rpc.Config{
			Port:              11101,
			ReadHeaderTimeout: "5s",
			ShutdownTimeout:   "10s",
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Port = 0
		assert.ErrorIs(t, conf1.Validate(), rpc.ErrInvalidRPCPort)

		conf2 := validConf
		conf2.CertFile = "noSuchCertFile"
		assert.ErrorIs(t, conf2.Validate(), rpc.ErrInvalidCertFile)

		conf3 := validConf
		conf3.KeyFile = "noSuchKeyFile"
		assert.ErrorIs(t, conf3.Validate(), rpc.ErrInvalidKeyFile)

		conf4 := validConf
		conf4.ReadHeaderTimeout = "5"
		assert.ErrorIs(t, conf4.Validate(), rpc.ErrInvalidReadHeaderTimeout)

		conf5 := validConf
		conf5.ShutdownTimeout = "soon"
		assert.ErrorIs(t, conf5.Validate(), rpc.ErrInvalidShutdownTimeout)
	})
}
