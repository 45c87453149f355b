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

package rpc

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/logging"
)

const (
	// requestIDHeader carries the ID of a request. A valid ID sent by the
	// client is kept, otherwise a new one is generated.
	requestIDHeader = "X-Request-Id"

	// SlowThreshold is the threshold for slow requests.
	SlowThreshold = 100 * time.Millisecond
)

// newContextMiddleware stores a logger carrying the request ID in the request
// context and logs the request once it is handled.
func newContextMiddleware(be *backend.Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if _, err := xid.FromString(rid); err != nil {
			rid = xid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, rid)

		logger := logging.New("RPC", logging.NewField("rid", rid))
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), logger))

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if be.Metrics != nil {
			be.Metrics.AddServerHandledCounter(c.Request.Method, route, strconv.Itoa(status))
		}

		if last := c.Errors.Last(); last != nil {
			logging.LogRequest(logger, c.Request.Method, c.Request.URL.Path, status, duration, last.Err)
			return
		}
		if duration > SlowThreshold {
			logger.Infof("HTTP: %s %q %d %s", c.Request.Method, c.Request.URL.Path, status, duration)
			return
		}
		logging.LogRequest(logger, c.Request.Method, c.Request.URL.Path, status, duration, nil)
	}
}

// newRecoveryMiddleware turns a panic of a handler into an internal error
// response.
func newRecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.From(c.Request.Context()).Errorf("HTTP: panic: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "ErrInternal",
			Message: "internal error",
		})
	})
}
