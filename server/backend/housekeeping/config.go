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

// Package housekeeping is the package for housekeeping service. It cleans up
// the resources and data that is no longer needed.
package housekeeping

import (
	"fmt"
	"time"
)

// Config is the configuration for the housekeeping service.
type Config struct {
	// Interval is the time between housekeeping runs.
	Interval string `yaml:"Interval"`

	// OptimizeWindow is the distance from the history cursor beyond which
	// snapshot payloads are stripped.
	OptimizeWindow int `yaml:"OptimizeWindow"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf(
			`invalid argument %s for "--housekeeping-interval" flag: %w`,
			c.Interval,
			err,
		)
	}

	if interval <= 0 {
		return fmt.Errorf(
			`invalid argument %s for "--housekeeping-interval" flag: must be positive`,
			c.Interval,
		)
	}

	if c.OptimizeWindow <= 0 {
		return fmt.Errorf(
			`invalid argument %d for "--housekeeping-optimize-window" flag`,
			c.OptimizeWindow,
		)
	}

	return nil
}

// ParseInterval parses the interval.
func (c *Config) ParseInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("parse interval %s: %w", c.Interval, err)
	}

	return interval, nil
}

// Spec returns the cron spec that runs the service every interval.
func (c *Config) Spec() (string, error) {
	interval, err := c.ParseInterval()
	if err != nil {
		return "", err
	}

	return "@every " + interval.String(), nil
}
