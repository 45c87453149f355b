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

package profiling_test

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/server/profiling"
	"github.com/quire-team/quire/server/profiling/prometheus"
	"github.com/quire-team/quire/test/helper"
)

func TestServer(t *testing.T) {
	t.Run("serve metrics test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)

		conf := &profiling.Config{Port: helper.ProfilingPort}
		server := profiling.NewServer(conf, metrics)
		assert.NoError(t, server.Start())
		defer server.Shutdown(true)

		addr := fmt.Sprintf("localhost:%d", conf.Port)
		assert.NoError(t, helper.WaitForServerToStart(addr))

		resp, err := http.Get("http://" + addr + "/metrics")
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, resp.Body.Close())
		}()

		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "quire_server_version")
	})
}
