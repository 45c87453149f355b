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

package mongo

import (
	"fmt"
	"os"
	"time"
)

const (
	// DefaultConnectionTimeout is the default timeout for connecting.
	DefaultConnectionTimeout = "5s"

	// DefaultPingTimeout is the default timeout for pinging.
	DefaultPingTimeout = "5s"

	// DefaultQuireDatabase is the default name of the database.
	DefaultQuireDatabase = "quire"

	// MaxDocumentBytes is the BSON document size limit of MongoDB.
	MaxDocumentBytes = 16 << 20

	// MaxUploadBytes is the largest document a mongo-backed server accepts.
	// A document record keeps the original and current bytes side by side,
	// and a snapshot keeps its document and base bytes, so two copies plus
	// the annotation sets must fit in MaxDocumentBytes.
	MaxUploadBytes = 7 << 20
)

// Config is the configuration for creating a Client instance.
type Config struct {
	ConnectionTimeout string `yaml:"ConnectionTimeout"`
	ConnectionURI     string `yaml:"ConnectionURI"`
	QuireDatabase     string `yaml:"QuireDatabase"`
	PingTimeout       string `yaml:"PingTimeout"`

	// MonitoringEnabled turns on the command monitor that logs slow queries.
	MonitoringEnabled            bool   `yaml:"MonitoringEnabled"`
	MonitoringSlowQueryThreshold string `yaml:"MonitoringSlowQueryThreshold"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.ConnectionTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--mongo-connection-timeout" flag: %w`,
			c.ConnectionTimeout,
			err,
		)
	}

	if _, err := time.ParseDuration(c.PingTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--mongo-ping-timeout" flag: %w`,
			c.PingTimeout,
			err,
		)
	}

	if c.MonitoringEnabled && c.MonitoringSlowQueryThreshold != "" {
		if _, err := time.ParseDuration(c.MonitoringSlowQueryThreshold); err != nil {
			return fmt.Errorf(
				`invalid argument "%s" for "--mongo-monitoring-slow-query-threshold" flag: %w`,
				c.MonitoringSlowQueryThreshold,
				err,
			)
		}
	}

	return nil
}

// ParseConnectionTimeout returns connection timeout duration.
func (c *Config) ParseConnectionTimeout() time.Duration {
	result, err := time.ParseDuration(c.ConnectionTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse connection timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParsePingTimeout returns ping timeout duration.
func (c *Config) ParsePingTimeout() time.Duration {
	result, err := time.ParseDuration(c.PingTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse ping timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}
