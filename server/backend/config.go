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

package backend

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrInvalidMaxSnapshots is returned when the history capacity is not positive.
	ErrInvalidMaxSnapshots = errors.New("max snapshots must be positive")

	// ErrInvalidThumbnailWidth is returned when the thumbnail width is not positive.
	ErrInvalidThumbnailWidth = errors.New("thumbnail width must be positive")

	// ErrInvalidMaxUploadBytes is returned when the upload limit is not positive.
	ErrInvalidMaxUploadBytes = errors.New("max upload bytes must be positive")
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// MaxSnapshots is the capacity of the history stack of each document.
	MaxSnapshots int `yaml:"MaxSnapshots"`

	// ThumbnailWidth is the width in pixels of the light thumbnails kept in
	// every snapshot.
	ThumbnailWidth int `yaml:"ThumbnailWidth"`

	// MaxUploadBytes is the largest document accepted at upload.
	MaxUploadBytes int64 `yaml:"MaxUploadBytes"`

	// PageInfoCacheSize is the cache size of the page geometry of documents.
	PageInfoCacheSize int `yaml:"PageInfoCacheSize"`

	// PageInfoCacheTTL is the TTL value to set when caching page geometry.
	PageInfoCacheTTL string `yaml:"PageInfoCacheTTL"`

	// CacheStatsInterval is the interval of logging cache statistics. Empty
	// disables the log.
	CacheStatsInterval string `yaml:"CacheStatsInterval"`

	// SubscriptionLimitPerDocument is the maximum number of history streams
	// of one document. Zero means no limit.
	SubscriptionLimitPerDocument int `yaml:"SubscriptionLimitPerDocument"`

	// Hostname is quire server hostname. hostname is used by metrics.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.MaxSnapshots <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--history-max-snapshots" flag: %w`,
			c.MaxSnapshots,
			ErrInvalidMaxSnapshots,
		)
	}

	if c.ThumbnailWidth <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--thumbnail-width" flag: %w`,
			c.ThumbnailWidth,
			ErrInvalidThumbnailWidth,
		)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--max-upload-bytes" flag: %w`,
			c.MaxUploadBytes,
			ErrInvalidMaxUploadBytes,
		)
	}

	if _, err := time.ParseDuration(c.PageInfoCacheTTL); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--page-info-cache-ttl" flag: %w`,
			c.PageInfoCacheTTL,
			err,
		)
	}

	if c.CacheStatsInterval != "" {
		if _, err := time.ParseDuration(c.CacheStatsInterval); err != nil {
			return fmt.Errorf(
				`invalid argument "%s" for "--cache-stats-interval" flag: %w`,
				c.CacheStatsInterval,
				err,
			)
		}
	}

	return nil
}

// ParsePageInfoCacheTTL returns TTL for the page info cache.
func (c *Config) ParsePageInfoCacheTTL() time.Duration {
	result, err := time.ParseDuration(c.PageInfoCacheTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse page info cache ttl: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParseCacheStatsInterval returns the interval of cache statistics logging,
// or zero when disabled.
func (c *Config) ParseCacheStatsInterval() time.Duration {
	if c.CacheStatsInterval == "" {
		return 0
	}

	result, err := time.ParseDuration(c.CacheStatsInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse cache stats interval: %v\n", err)
		os.Exit(1)
	}

	return result
}
