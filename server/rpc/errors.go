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
	"context"
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quire-team/quire/pkg/errors"
)

// statusClientClosedRequest is reported when the client went away before the
// request finished.
const statusClientClosedRequest = 499

// ErrInvalidRequest is returned when the request cannot be parsed.
var ErrInvalidRequest = errors.InvalidArgument("invalid request").WithCode("ErrInvalidRequest")

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StatusOf returns the HTTP status of the given error. Errors without a
// status are internal errors.
func StatusOf(err error) int {
	if goerrors.Is(err, context.Canceled) {
		return statusClientClosedRequest
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return errors.StatusOf(err).HTTPStatus()
}

// ToErrorResponse returns the response body of the given error.
func ToErrorResponse(err error) ErrorResponse {
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.ErrCodeInternal.String()
		if status := errors.StatusOf(err); status != 0 {
			code = status.String()
		}
	}

	return ErrorResponse{
		Code:     code,
		Message:  err.Error(),
		Metadata: errors.Metadata(err),
	}
}

// abort stops the request with the response of the given error. The error is
// kept in the context for the request log.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusOf(err), ToErrorResponse(err))
}
