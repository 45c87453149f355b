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

// Package rpc provides the HTTP API of Quire. Documents, annotations,
// operations and history are exposed as JSON resources and history state
// changes are streamed over websockets.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/logging"
)

// Server is a normal server that processes the logic requested by the client.
type Server struct {
	conf          *Config
	httpServer    *http.Server
	serviceCancel context.CancelFunc
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) (*Server, error) {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	engine := gin.New()
	engine.Use(
		newRecoveryMiddleware(),
		cors.New(newCORSConfig(conf)),
		newContextMiddleware(be),
	)
	registerRoutes(engine, newHandlers(serviceCtx, be))

	return &Server{
		conf: conf,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           engine,
			ReadHeaderTimeout: conf.ParseReadHeaderTimeout(),
		},
		serviceCancel: serviceCancel,
	}, nil
}

// Handler returns the HTTP handler of this server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	return s.listenAndServe()
}

// Shutdown shuts down this server. Open history streams are closed first.
func (s *Server) Shutdown(graceful bool) {
	s.serviceCancel()

	if !graceful {
		if err := s.httpServer.Close(); err != nil {
			logging.DefaultLogger().Error(err)
		}
		return
	}

	ctx := context.Background()
	if timeout := s.conf.ParseShutdownTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
	}
}

func (s *Server) listenAndServe() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)

		var err error
		if s.conf.CertFile != "" && s.conf.KeyFile != "" {
			err = s.httpServer.ServeTLS(lis, s.conf.CertFile, s.conf.KeyFile)
		} else {
			err = s.httpServer.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}

func newCORSConfig(conf *Config) cors.Config {
	corsConf := cors.DefaultConfig()
	if len(conf.AllowOrigins) == 0 {
		corsConf.AllowAllOrigins = true
	} else {
		corsConf.AllowOrigins = conf.AllowOrigins
	}
	corsConf.AllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	corsConf.AllowHeaders = append(corsConf.AllowHeaders, requestIDHeader)
	corsConf.ExposeHeaders = []string{requestIDHeader}
	return corsConf
}

func registerRoutes(r gin.IRouter, h *handlers) {
	r.GET("/healthz", h.health)

	docs := r.Group("/documents")
	docs.POST("", h.createDocument)
	docs.GET("", h.listDocuments)
	docs.GET("/:id", h.getDocument)
	docs.DELETE("/:id", h.removeDocument)
	docs.GET("/:id/content", h.getContent)
	docs.GET("/:id/pages", h.getPages)
	docs.PUT("/:id/pages/:page", h.setPageAnnotations)
	docs.POST("/:id/pages/:page/annotations", h.addAnnotation)
	docs.DELETE("/:id/pages/:page/annotations/:annotation", h.removeAnnotation)
	docs.POST("/:id/bake", h.bake)
	docs.POST("/:id/operations", h.applyOperation)
	docs.POST("/:id/split", h.split)

	hist := docs.Group("/:id/history")
	hist.GET("", h.getHistoryState)
	hist.GET("/snapshots", h.listSnapshots)
	hist.POST("/undo", h.undo)
	hist.POST("/redo", h.redo)
	hist.POST("/jump", h.jump)
	hist.GET("/stream", h.streamHistory)
}
