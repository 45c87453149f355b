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

// Package backend provides the backend implementation of the Quire.
// This package is responsible for managing the database and other
// resources required to run Quire.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/cache"
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/pkg/thumbnail"
	"github.com/quire-team/quire/server/backend/database"
	memdb "github.com/quire-team/quire/server/backend/database/memory"
	"github.com/quire-team/quire/server/backend/database/mongo"
	"github.com/quire-team/quire/server/backend/housekeeping"
	"github.com/quire-team/quire/server/backend/pubsub"
	"github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
	"github.com/quire-team/quire/server/profiling/prometheus"
)

// Backend manages Quire's backend such as Database and the history store. It
// also provides in-memory cache, pubsub, and locker.
type Backend struct {
	Config *Config

	// DB is the database instance.
	DB database.Database

	// History holds the undo/redo stacks of the loaded documents.
	History *history.Store

	// PubSub is used to publish history state changes to streams.
	PubSub *pubsub.PubSub

	// Lockers is used to lock/unlock resources.
	Lockers *sync.LockerManager

	// Rasterizer renders pages for thumbnails.
	Rasterizer thumbnail.Rasterizer

	// PageInfos caches the page geometry of document bytes.
	PageInfos *cache.LRU[string, *pdfops.Info]

	// Cache logs the statistics of the caches.
	Cache *cache.Manager

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics

	// Housekeeping is used to manage background batch tasks.
	Housekeeping *housekeeping.Housekeeping

	cancelCache context.CancelFunc
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Build the server info with the given hostname or the hostname of the
	// current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the caches, pubsub, and lockers.
	pageInfos, err := cache.NewLRU[string, *pdfops.Info](
		conf.PageInfoCacheSize,
		conf.ParsePageInfoCacheTTL(),
		"page-info",
	)
	if err != nil {
		return nil, fmt.Errorf("initialize page info cache: %w", err)
	}
	cacheManager := cache.NewManager(conf.ParseCacheStatsInterval())
	cacheManager.RegisterCache(pageInfos)

	lockers := sync.New()
	pubSub := pubsub.New(pubsub.DefaultBufferSize)

	// 03. Create the history store. Every state change is pushed to the
	// streams of the document.
	var store *history.Store
	store = history.NewStore(conf.MaxSnapshots, func(docID types.ID, state types.HistoryState) {
		pubSub.Publish(docID, state)
		if metrics != nil {
			metrics.SetHistorySnapshots(store.Len())
		}
	})

	// 04. Create the database instance. If the MongoDB configuration is given,
	// create a MongoDB instance. Otherwise, create a memory database instance.
	var db database.Database
	if mongoConf != nil {
		db, err = mongo.Dial(mongoConf)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = memdb.New()
		if err != nil {
			return nil, err
		}
	}

	// 05. Create the housekeeping instance.
	keeping, err := housekeeping.New(housekeepingConf, db, store, lockers, metrics)
	if err != nil {
		return nil, err
	}

	dbInfo := "memory"
	if mongoConf != nil {
		dbInfo = mongoConf.ConnectionURI
	}

	logging.DefaultLogger().Infof(
		"backend created: db: %s, max snapshots: %d",
		dbInfo,
		store.MaxSnapshots(),
	)

	return &Backend{
		Config: conf,

		DB:         db,
		History:    store,
		PubSub:     pubSub,
		Lockers:    lockers,
		Rasterizer: thumbnail.Blank{},
		PageInfos:  pageInfos,
		Cache:      cacheManager,

		Metrics:      metrics,
		Housekeeping: keeping,
	}, nil
}

// Start starts the background tasks of the backend.
func (b *Backend) Start(ctx context.Context) error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	cacheCtx, cancel := context.WithCancel(ctx)
	b.cancelCache = cancel
	go b.Cache.Run(cacheCtx)

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	if b.cancelCache != nil {
		b.cancelCache()
	}

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}

// PageInfo returns the page geometry of the given document bytes. Results
// are cached by content digest.
func (b *Backend) PageInfo(doc []byte) (*pdfops.Info, error) {
	return b.PageInfos.GetOrLoad(digest(doc), func() (*pdfops.Info, error) {
		return pdfops.Inspect(doc)
	})
}
