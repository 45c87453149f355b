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

package logging

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RequestLogLevel represents the severity level for request logging.
type RequestLogLevel int

// Below are the levels requests are logged at.
const (
	RequestLogDebug RequestLogLevel = iota
	RequestLogInfo
	RequestLogWarn
	RequestLogError
)

// String returns the string representation of RequestLogLevel.
func (l RequestLogLevel) String() string {
	switch l {
	case RequestLogDebug:
		return "debug"
	case RequestLogInfo:
		return "info"
	case RequestLogError:
		return "error"
	}
	return "warn"
}

// toRequestLogLevel classifies a finished request by its HTTP status.
func toRequestLogLevel(status int, err error) RequestLogLevel {
	if errors.Is(err, context.Canceled) {
		return RequestLogDebug
	}

	switch {
	case status >= http.StatusInternalServerError:
		return RequestLogError
	case status == http.StatusConflict,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusTooManyRequests:
		return RequestLogWarn
	case status >= http.StatusBadRequest:
		return RequestLogInfo
	default:
		return RequestLogDebug
	}
}

// LogRequest logs a finished request at the level matching its status.
func LogRequest(logger Logger, method, path string, status int, duration time.Duration, err error) {
	if err == nil {
		switch toRequestLogLevel(status, nil) {
		case RequestLogError:
			logger.Errorf("HTTP: %s %q %d %s", method, path, status, duration)
		case RequestLogWarn:
			logger.Warnf("HTTP: %s %q %d %s", method, path, status, duration)
		case RequestLogInfo:
			logger.Infof("HTTP: %s %q %d %s", method, path, status, duration)
		default:
			logger.Debugf("HTTP: %s %q %d %s", method, path, status, duration)
		}
		return
	}

	const template = "HTTP: %s %q %d %s => %q"
	switch toRequestLogLevel(status, err) {
	case RequestLogDebug:
		logger.Debugf(template, method, path, status, duration, err)
	case RequestLogInfo:
		logger.Infof(template, method, path, status, duration, err)
	case RequestLogError:
		logger.Errorf(template, method, path, status, duration, err)
	default:
		logger.Warnf(template, method, path, status, duration, err)
	}
}
