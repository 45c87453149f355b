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

// Package errors provides error management with structured status codes
// shared by the engines, the backend and the HTTP API.
package errors

import (
	"fmt"
	"net/http"
)

// StatusCode represents the error codes used throughout quire.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller specified an invalid
	// argument regardless of the state of the system.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that a requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the entity already exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodeResourceExhausted indicates that a resource has been exhausted,
	// such as the maximum upload size.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the operation was rejected
	// because the system is not in a state required for its execution.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that some invariants expected by the
	// underlying system have been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the service is currently unavailable.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// HTTPStatus returns the HTTP status code for this error code. Errors
// without a status are reported as internal server errors.
func (c StatusCode) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeFailedPrecondition:
		return http.StatusConflict
	case ErrCodeResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError returns true if the error code represents a caller-side error.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodeResourceExhausted, ErrCodeFailedPrecondition:
		return true
	default:
		return false
	}
}
