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

package cache

import (
	"context"
	"time"

	"github.com/quire-team/quire/server/logging"
)

// StatsProvider is a cache that reports statistics.
type StatsProvider interface {
	Name() string
	Stats() *Stats
	Len() int
}

// Manager periodically logs the statistics of registered caches.
type Manager struct {
	caches   []StatsProvider
	interval time.Duration
	logger   logging.Logger
}

// NewManager creates a new cache manager.
func NewManager(interval time.Duration) *Manager {
	return &Manager{
		interval: interval,
		logger:   logging.New("cache"),
	}
}

// RegisterCache registers a cache for monitoring.
func (m *Manager) RegisterCache(cache StatsProvider) {
	m.caches = append(m.caches, cache)
}

// Run logs statistics every interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.LogStats()
		}
	}
}

// LogStats logs current cache statistics once.
func (m *Manager) LogStats() {
	for _, cache := range m.caches {
		stats := cache.Stats()
		m.logger.Infof(
			"CACHE: %s len=%d hits=%d misses=%d hitRate=%.2f%%",
			cache.Name(),
			cache.Len(),
			stats.Hits(),
			stats.Misses(),
			stats.HitRate(),
		)
	}
}
