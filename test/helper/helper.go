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

// Package helper provides helper functions for testing.
package helper

import (
	"fmt"
	"net"
	"strings"
	"testing"
	gotime "time"
)

// MongoURIEnv is the environment variable that enables the MongoDB tests.
const MongoURIEnv = "QUIRE_TEST_MONGO_URI"

var testStartedAt int64

// Below are the values of the Quire config used in the test.
var (
	RPCPort = 11201

	ProfilingPort = 11202

	HousekeepingInterval = 10 * gotime.Second
	MaxSnapshots         = 5
	OptimizeWindow       = 2
	ThumbnailWidth       = 40
)

func init() {
	testStartedAt = gotime.Now().Unix()
}

// TestDBName returns the name of test database with timestamp.
// timestamp is set only once on first call.
func TestDBName() string {
	return fmt.Sprintf("test-quire-%d", testStartedAt)
}

// TestDocName returns a document name derived from the test name.
func TestDocName(t testing.TB) string {
	name := strings.ReplaceAll(t.Name(), "/", "-")
	return strings.ReplaceAll(name, " ", "_") + ".pdf"
}

// WaitForServerToStart waits until the server listens on the given address.
func WaitForServerToStart(addr string) error {
	maxRetries := 10
	initialDelay := 100 * gotime.Millisecond
	maxDelay := 5 * gotime.Second

	for attempt := range maxRetries {
		delay := initialDelay * gotime.Duration(1<<uint(attempt))
		delay = min(delay, maxDelay)

		conn, err := net.DialTimeout("tcp", addr, 1*gotime.Second)
		if err != nil {
			gotime.Sleep(delay)
			continue
		}

		if err := conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}

		return nil
	}

	return fmt.Errorf("timeout for server to start: %s", addr)
}
