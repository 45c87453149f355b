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


package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quire-team/quire/server"
	"github.com/quire-team/quire/server/backend/database/mongo"
	"github.com/quire-team/quire/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath  string
	flagEnvPath   string
	flagLogLevel  string
	flagLogFormat string

	housekeepingInterval time.Duration
	pageInfoCacheTTL     time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoQuireDatabase     string
	mongoPingTimeout       time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start Quire server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Housekeeping.Interval = housekeepingInterval.String()
			conf.Backend.PageInfoCacheTTL = pageInfoCacheTTL.String()

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					QuireDatabase:     mongoQuireDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			// Environment variables take precedence over both.
			var envPaths []string
			if flagEnvPath != "" {
				envPaths = append(envPaths, flagEnvPath)
			}
			if err := conf.LoadEnv(envPaths...); err != nil {
				return err
			}

			if err := logging.SetFormat(flagLogFormat); err != nil {
				return err
			}
			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			q, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := q.Start(); err != nil {
				return err
			}

			if code := handleSignal(q); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(q *server.Quire) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-q.ShutdownCh():
		// quire is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := q.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVar(
		&flagEnvPath,
		"env-file",
		"",
		"Dotenv file with QUIRE_* variables",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&flagLogFormat,
		"log-format",
		logging.FormatConsole,
		"Log format: console, json",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().StringSliceVar(
		&conf.RPC.AllowOrigins,
		"rpc-allow-origins",
		nil,
		"Origins allowed by CORS. Empty allows any origin.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"housekeeping interval between housekeeping runs",
	)
	cmd.Flags().IntVar(
		&conf.Housekeeping.OptimizeWindow,
		"housekeeping-optimize-window",
		server.DefaultHousekeepingOptimizeWindow,
		"Distance from the history cursor beyond which snapshot payloads are stripped",
	)
	cmd.Flags().IntVar(
		&conf.Backend.MaxSnapshots,
		"history-max-snapshots",
		server.DefaultMaxSnapshots,
		"Capacity of the history of each document",
	)
	cmd.Flags().IntVar(
		&conf.Backend.ThumbnailWidth,
		"thumbnail-width",
		server.DefaultThumbnailWidth,
		"Width in pixels of snapshot thumbnails",
	)
	cmd.Flags().Int64Var(
		&conf.Backend.MaxUploadBytes,
		"max-upload-bytes",
		server.DefaultMaxUploadBytes,
		"Largest document accepted at upload",
	)
	cmd.Flags().IntVar(
		&conf.Backend.PageInfoCacheSize,
		"page-info-cache-size",
		server.DefaultPageInfoCacheSize,
		"The cache size of the page geometry of documents.",
	)
	cmd.Flags().DurationVar(
		&pageInfoCacheTTL,
		"page-info-cache-ttl",
		server.DefaultPageInfoCacheTTL,
		"TTL value to set when caching page geometry.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.CacheStatsInterval,
		"cache-stats-interval",
		"",
		"Interval of logging cache statistics. Empty disables the log.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SubscriptionLimitPerDocument,
		"subscription-limit-per-document",
		server.DefaultSubscriptionLimitPerDocument,
		"Maximum number of history streams of one document. Zero means no limit.",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoQuireDatabase,
		"mongo-quire-database",
		server.DefaultMongoQuireDatabase,
		"Quire's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"Quire Server Hostname",
	)

	rootCmd.AddCommand(cmd)
}
