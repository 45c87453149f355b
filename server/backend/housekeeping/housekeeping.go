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

// Package housekeeping provides the housekeeping service. The housekeeping
// service periodically strips the payloads of history snapshots far from the
// cursor, both in memory and in the database.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/server/backend/database"
	quiresync "github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
	"github.com/quire-team/quire/server/profiling/prometheus"
)

// Housekeeping is the housekeeping service. It runs the optimize pass over
// every history stack on a cron schedule.
type Housekeeping struct {
	database database.Database
	store    *history.Store
	lockers  *quiresync.LockerManager
	metrics  *prometheus.Metrics

	spec   string
	window int

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a new housekeeping instance.
func New(
	conf *Config,
	database database.Database,
	store *history.Store,
	lockers *quiresync.LockerManager,
	metrics *prometheus.Metrics,
) (*Housekeeping, error) {
	spec, err := conf.Spec()
	if err != nil {
		return nil, err
	}

	return &Housekeeping{
		database: database,
		store:    store,
		lockers:  lockers,
		metrics:  metrics,

		spec:   spec,
		window: conf.OptimizeWindow,
	}, nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(h.spec, h.run); err != nil {
		return fmt.Errorf("schedule housekeeping %s: %w", h.spec, err)
	}
	c.Start()
	h.cron = c

	logging.DefaultLogger().Infof("housekeeping started: %s", h.spec)
	return nil
}

// Stop stops the housekeeping service and waits for a running pass.
func (h *Housekeeping) Stop() error {
	h.mu.Lock()
	c := h.cron
	h.cron = nil
	h.mu.Unlock()

	if c == nil {
		return nil
	}

	<-c.Stop().Done()
	return nil
}

func (h *Housekeeping) run() {
	ctx := context.Background()
	if _, err := h.Optimize(ctx); err != nil {
		logging.From(ctx).Error(err)
	}
}

// Optimize runs one optimize pass and returns the number of stripped
// snapshots. Each document is locked while its stack and its stored
// snapshots are stripped.
func (h *Housekeeping) Optimize(ctx context.Context) (int, error) {
	start := time.Now()

	docIDs := h.store.DocIDs()
	optimized := 0
	for _, docID := range docIDs {
		count, err := h.optimizeDocument(ctx, docID)
		if err != nil {
			return optimized, err
		}
		optimized += count
	}

	if h.metrics != nil {
		h.metrics.AddOptimizedSnapshots(optimized)
	}

	if optimized > 0 {
		logging.From(ctx).Infof(
			"HSKP: documents %d, optimized %d, %s",
			len(docIDs),
			optimized,
			time.Since(start),
		)
	}

	return optimized, nil
}

func (h *Housekeeping) optimizeDocument(ctx context.Context, docID types.ID) (int, error) {
	locker := h.lockers.Locker(quiresync.DocKey(docID))
	locker.Lock()
	defer func() {
		if err := locker.Unlock(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	stripped := h.store.Optimize(docID, h.window)
	if len(stripped) == 0 {
		return 0, nil
	}

	if err := h.database.StripSnapshotInfos(ctx, docID, stripped); err != nil {
		return 0, fmt.Errorf("strip snapshots of %s: %w", docID, err)
	}

	return len(stripped), nil
}
