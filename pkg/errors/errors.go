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

package errors

import (
	"errors"
)

// StatusError represents an error that carries an error status and a
// machine-readable code.
type StatusError interface {
	error
	Status() StatusCode
	Code() string
	WithCode(code string) StatusError
}

// errorWithStatus is the internal implementation of StatusError.
type errorWithStatus struct {
	err    error
	status StatusCode
	code   string
}

// Error returns the error message.
func (e errorWithStatus) Error() string {
	return e.err.Error()
}

// Status returns the error status.
func (e errorWithStatus) Status() StatusCode {
	return e.status
}

// Code returns the string representation of the error code.
func (e errorWithStatus) Code() string {
	return e.code
}

// Unwrap returns the underlying error.
func (e errorWithStatus) Unwrap() error {
	return e.err
}

// WithCode returns a new StatusError with the specified custom code.
func (e errorWithStatus) WithCode(code string) StatusError {
	return errorWithStatus{
		err:    e.err,
		status: e.status,
		code:   code,
	}
}

func newErrorWithStatus(err error, status StatusCode) StatusError {
	return errorWithStatus{
		err:    err,
		status: status,
	}
}

// NotFound creates a new "not found" error.
func NotFound(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeNotFound)
}

// InvalidArgument creates a new "invalid argument" error.
// Use this when the caller provides input that can never succeed.
func InvalidArgument(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeInvalidArgument)
}

// AlreadyExists creates a new "already exists" error.
func AlreadyExists(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeAlreadyExists)
}

// FailedPrecond creates a new "failed precondition" error.
// Use this when the document or history is not in the state the operation
// requires.
func FailedPrecond(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeFailedPrecondition)
}

// ResourceExhausted creates a new "resource exhausted" error.
func ResourceExhausted(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeResourceExhausted)
}

// Internal creates a new "internal" error.
func Internal(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeInternal)
}

// Unavailable creates a new "unavailable" error.
func Unavailable(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeUnavailable)
}

// StatusOf extracts the error status from an error chain. It returns 0 when
// no StatusError is found.
func StatusOf(err error) StatusCode {
	if err == nil {
		return 0
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status()
	}

	return 0
}

// CodeOf extracts the custom code of the first StatusError in the chain.
func CodeOf(err error) string {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code()
	}
	return ""
}

// IsStatus checks if the given error has the specified error status.
func IsStatus(err error, code StatusCode) bool {
	return StatusOf(err) == code
}

// IsClientError checks if the error represents a caller-side error.
func IsClientError(err error) bool {
	return StatusOf(err).IsClientError()
}

// Is is a shortcut of the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a shortcut of the standard errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
