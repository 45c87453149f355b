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


package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database/mongo"
	"github.com/quire-team/quire/server/backend/housekeeping"
	"github.com/quire-team/quire/server/logging"
	"github.com/quire-team/quire/server/profiling"
	"github.com/quire-team/quire/server/rpc"
)

// Below are the values of the default values of Quire config.
const (
	DefaultRPCPort              = 8080
	DefaultRPCReadHeaderTimeout = 10 * time.Second
	DefaultRPCShutdownTimeout   = 10 * time.Second
	DefaultProfilingPort        = 8081

	DefaultHousekeepingInterval       = 30 * time.Second
	DefaultHousekeepingOptimizeWindow = history.DefaultOptimizeWindow

	DefaultMongoConnectionURI                = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout            = 5 * time.Second
	DefaultMongoPingTimeout                  = 5 * time.Second
	DefaultMongoQuireDatabase                = "quire"
	DefaultMongoMonitoringSlowQueryThreshold = 100 * time.Millisecond

	DefaultMaxSnapshots                 = history.DefaultMaxSnapshots
	DefaultThumbnailWidth               = 160
	DefaultMaxUploadBytes               = 64 << 20
	DefaultPageInfoCacheSize            = 256
	DefaultPageInfoCacheTTL             = 10 * time.Minute
	DefaultSubscriptionLimitPerDocument = 0

	DefaultHostname = ""
)

// Below are the environment variables read by LoadEnv.
const (
	EnvRPCPort               = "QUIRE_RPC_PORT"
	EnvProfilingPort         = "QUIRE_PROFILING_PORT"
	EnvHousekeepingInterval  = "QUIRE_HOUSEKEEPING_INTERVAL"
	EnvHistoryMaxSnapshots   = "QUIRE_HISTORY_MAX_SNAPSHOTS"
	EnvHistoryOptimizeWindow = "QUIRE_HISTORY_OPTIMIZE_WINDOW"
	EnvMaxUploadBytes        = "QUIRE_MAX_UPLOAD_BYTES"
	EnvMongoConnectionURI    = "QUIRE_MONGO_CONNECTION_URI"
	EnvMongoDatabase         = "QUIRE_MONGO_DATABASE"
	EnvHostname              = "QUIRE_HOSTNAME"
)

// ErrUploadLimitExceedsMongo is returned when the upload limit is larger than
// a mongo record can hold.
var ErrUploadLimitExceedsMongo = errors.New("max upload bytes exceed the mongo limit")

// Config is the configuration for creating a Quire instance.
type Config struct {
	RPC          *rpc.Config          `yaml:"RPC"`
	Profiling    *profiling.Config    `yaml:"Profiling"`
	Housekeeping *housekeeping.Config `yaml:"Housekeeping"`
	Backend      *backend.Config      `yaml:"Backend"`
	Mongo        *mongo.Config        `yaml:"Mongo"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// LoadEnv applies the QUIRE_* environment variables to the config. When
// paths are given, the dotenv files are loaded first without overriding
// variables already present in the environment.
func (c *Config) LoadEnv(paths ...string) error {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
	}

	if err := envInt(EnvRPCPort, &c.RPC.Port); err != nil {
		return err
	}
	if err := envInt(EnvProfilingPort, &c.Profiling.Port); err != nil {
		return err
	}
	if err := envInt(EnvHistoryMaxSnapshots, &c.Backend.MaxSnapshots); err != nil {
		return err
	}
	if err := envInt(EnvHistoryOptimizeWindow, &c.Housekeeping.OptimizeWindow); err != nil {
		return err
	}
	if value, ok := os.LookupEnv(EnvMaxUploadBytes); ok {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", EnvMaxUploadBytes, value, err)
		}
		c.Backend.MaxUploadBytes = parsed
	}
	if value, ok := os.LookupEnv(EnvHousekeepingInterval); ok {
		c.Housekeeping.Interval = value
	}
	if value, ok := os.LookupEnv(EnvHostname); ok {
		c.Backend.Hostname = value
	}

	if value, ok := os.LookupEnv(EnvMongoConnectionURI); ok && value != "" {
		if c.Mongo == nil {
			c.Mongo = &mongo.Config{
				ConnectionTimeout:            DefaultMongoConnectionTimeout.String(),
				QuireDatabase:                DefaultMongoQuireDatabase,
				PingTimeout:                  DefaultMongoPingTimeout.String(),
				MonitoringSlowQueryThreshold: DefaultMongoMonitoringSlowQueryThreshold.String(),
			}
		}
		c.Mongo.ConnectionURI = value
	}
	if value, ok := os.LookupEnv(EnvMongoDatabase); ok && c.Mongo != nil {
		c.Mongo.QuireDatabase = value
	}

	c.clampUploadLimit()
	return nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
		if c.Backend.MaxUploadBytes > mongo.MaxUploadBytes {
			return fmt.Errorf(
				`invalid argument "%d" for "--max-upload-bytes" flag with mongo: %w`,
				c.Backend.MaxUploadBytes,
				ErrUploadLimitExceedsMongo,
			)
		}
	}

	return nil
}

// clampUploadLimit lowers the upload limit to what a mongo record can hold.
func (c *Config) clampUploadLimit() {
	if c.Mongo == nil || c.Backend == nil || c.Backend.MaxUploadBytes <= mongo.MaxUploadBytes {
		return
	}

	logging.DefaultLogger().Warnf(
		"max upload bytes %d exceed the mongo limit, lowered to %d",
		c.Backend.MaxUploadBytes,
		mongo.MaxUploadBytes,
	)
	c.Backend.MaxUploadBytes = mongo.MaxUploadBytes
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.RPC == nil {
		c.RPC = &rpc.Config{}
	}
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.ReadHeaderTimeout == "" {
		c.RPC.ReadHeaderTimeout = DefaultRPCReadHeaderTimeout.String()
	}
	if c.RPC.ShutdownTimeout == "" {
		c.RPC.ShutdownTimeout = DefaultRPCShutdownTimeout.String()
	}

	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Housekeeping == nil {
		c.Housekeeping = &housekeeping.Config{}
	}
	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.OptimizeWindow == 0 {
		c.Housekeeping.OptimizeWindow = DefaultHousekeepingOptimizeWindow
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.MaxSnapshots == 0 {
		c.Backend.MaxSnapshots = DefaultMaxSnapshots
	}
	if c.Backend.ThumbnailWidth == 0 {
		c.Backend.ThumbnailWidth = DefaultThumbnailWidth
	}
	if c.Backend.MaxUploadBytes == 0 {
		c.Backend.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Backend.PageInfoCacheSize == 0 {
		c.Backend.PageInfoCacheSize = DefaultPageInfoCacheSize
	}
	if c.Backend.PageInfoCacheTTL == "" {
		c.Backend.PageInfoCacheTTL = DefaultPageInfoCacheTTL.String()
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
		if c.Mongo.QuireDatabase == "" {
			c.Mongo.QuireDatabase = DefaultMongoQuireDatabase
		}
		if c.Mongo.MonitoringSlowQueryThreshold == "" {
			c.Mongo.MonitoringSlowQueryThreshold = DefaultMongoMonitoringSlowQueryThreshold.String()
		}
	}
	c.clampUploadLimit()
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:              port,
			ReadHeaderTimeout: DefaultRPCReadHeaderTimeout.String(),
			ShutdownTimeout:   DefaultRPCShutdownTimeout.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Housekeeping: &housekeeping.Config{
			Interval:       DefaultHousekeepingInterval.String(),
			OptimizeWindow: DefaultHousekeepingOptimizeWindow,
		},
		Backend: &backend.Config{
			MaxSnapshots:                 DefaultMaxSnapshots,
			ThumbnailWidth:               DefaultThumbnailWidth,
			MaxUploadBytes:               DefaultMaxUploadBytes,
			PageInfoCacheSize:            DefaultPageInfoCacheSize,
			PageInfoCacheTTL:             DefaultPageInfoCacheTTL.String(),
			SubscriptionLimitPerDocument: DefaultSubscriptionLimitPerDocument,
			Hostname:                     DefaultHostname,
		},
	}
}

func envInt(key string, target *int) error {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	*target = parsed
	return nil
}
