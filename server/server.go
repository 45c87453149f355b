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


// Package server provides the Quire server which is the main entry point of
// the Quire system. The server is responsible for starting the RPC server and
// the profiling server.
package server

import (
	"context"
	gosync "sync"

	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/profiling"
	"github.com/quire-team/quire/server/profiling/prometheus"
	"github.com/quire-team/quire/server/rpc"
)

// Quire is a server of Quire.
// The server receives documents and their annotations, bakes and edits them,
// and keeps the undo/redo history of every document it serves.
type Quire struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Quire.
func New(conf *Config) (*Quire, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Housekeeping,
		metrics,
	)
	if err != nil {
		return nil, err
	}

	rpcServer, err := rpc.NewServer(conf.RPC, be)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Quire{
		conf:            conf,
		backend:         be,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (r *Quire) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(context.Background()); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	return r.rpcServer.Start()
}

// Shutdown shuts down this Quire server.
func (r *Quire) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *Quire) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RPCAddr returns the address of the RPC.
func (r *Quire) RPCAddr() string {
	return r.conf.RPCAddr()
}

// OptimizeHistories runs one optimize pass over the loaded histories. It is
// used for testing.
func (r *Quire) OptimizeHistories(ctx context.Context) (int, error) {
	return r.backend.Housekeeping.Optimize(ctx)
}
