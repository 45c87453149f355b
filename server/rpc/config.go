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
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidRPCPort occurs when the port in the config is invalid.
	ErrInvalidRPCPort = errors.New("invalid port number for RPC server")
	// ErrInvalidCertFile occurs when the certificate file is invalid.
	ErrInvalidCertFile = errors.New("invalid cert file for RPC server")
	// ErrInvalidKeyFile occurs when the key file is invalid.
	ErrInvalidKeyFile = errors.New("invalid key file for RPC server")
	// ErrInvalidReadHeaderTimeout occurs when the read header timeout is invalid.
	ErrInvalidReadHeaderTimeout = errors.New("invalid read header timeout for RPC server")
	// ErrInvalidShutdownTimeout occurs when the shutdown timeout is invalid.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout for RPC server")
)

// Config is the configuration for creating a Server instance.
type Config struct {
	// Port is the port number for the RPC server.
	Port int `yaml:"Port"`

	// CertFile is the path to the certificate file.
	CertFile string `yaml:"CertFile"`

	// KeyFile is the path to the key file.
	KeyFile string `yaml:"KeyFile"`

	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout string `yaml:"ReadHeaderTimeout"`

	// ShutdownTimeout is the time a graceful shutdown waits for in-flight
	// requests.
	ShutdownTimeout string `yaml:"ShutdownTimeout"`

	// AllowOrigins are the origins allowed by CORS. Empty means any origin.
	AllowOrigins []string `yaml:"AllowOrigins"`
}

// Validate validates the port number and the files for certification.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidRPCPort)
	}

	// when specific cert or key file are configured
	if c.CertFile != "" {
		if _, err := os.Stat(c.CertFile); err != nil {
			return fmt.Errorf("%s: %w", c.CertFile, ErrInvalidCertFile)
		}
	}

	if c.KeyFile != "" {
		if _, err := os.Stat(c.KeyFile); err != nil {
			return fmt.Errorf("%s: %w", c.KeyFile, ErrInvalidKeyFile)
		}
	}

	if _, err := time.ParseDuration(c.ReadHeaderTimeout); err != nil {
		return fmt.Errorf(
			"%s: %w",
			c.ReadHeaderTimeout,
			ErrInvalidReadHeaderTimeout,
		)
	}

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf(
			"%s: %w",
			c.ShutdownTimeout,
			ErrInvalidShutdownTimeout,
		)
	}

	return nil
}

// ParseReadHeaderTimeout returns the read header timeout.
func (c *Config) ParseReadHeaderTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.ReadHeaderTimeout)
	if err != nil {
		return 0
	}
	return timeout
}

// ParseShutdownTimeout returns the shutdown timeout.
func (c *Config) ParseShutdownTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0
	}
	return timeout
}
