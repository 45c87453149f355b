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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/internal/version"
)

const (
	namespace          = "quire"
	hostnameLabel      = "hostname"
	operationKindLabel = "operation_kind"
	resultLabel        = "result"
)

// Below are the values of the result label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics manages the metric information that Quire is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	bakeDurationSeconds   prometheus.Histogram
	bakedAnnotationsTotal *prometheus.CounterVec
	skippedAnnotations    *prometheus.CounterVec

	operationsTotal *prometheus.CounterVec

	historySnapshots         prometheus.Gauge
	historyEvictedTotal      prometheus.Counter
	historyOptimizedTotal    prometheus.Counter
	historyStreamConnections *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "server_handled_total",
			Help:      "Total number of HTTP requests completed on the server, regardless of success or failure.",
		}, []string{"http_method", "http_route", "http_code"}),
		bakeDurationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bake",
			Name:      "duration_seconds",
			Help:      "The time it takes to bake the annotations of a document.",
		}),
		bakedAnnotationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bake",
			Name:      "applied_annotations_total",
			Help:      "The total count of annotations drawn into documents.",
		}, []string{hostnameLabel}),
		skippedAnnotations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bake",
			Name:      "skipped_annotations_total",
			Help:      "The total count of annotations skipped because they could not be drawn.",
		}, []string{hostnameLabel}),
		operationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "operations_total",
			Help:      "The total count of document operations by kind and result.",
		}, []string{operationKindLabel, resultLabel}),
		historySnapshots: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "snapshots",
			Help:      "The number of snapshots held by the history store.",
		}),
		historyEvictedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "dropped_snapshots_total",
			Help:      "The total count of snapshots dropped by truncation or eviction.",
		}),
		historyOptimizedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "optimized_snapshots_total",
			Help:      "The total count of snapshots stripped by the optimize pass.",
		}),
		historyStreamConnections: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "stream_connections",
			Help:      "The number of open history state streams.",
		}, []string{hostnameLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddServerHandledCounter adds a counter of the completed HTTP request.
func (m *Metrics) AddServerHandledCounter(method, route, code string) {
	m.serverHandledCounter.With(prometheus.Labels{
		"http_method": method,
		"http_route":  route,
		"http_code":   code,
	}).Inc()
}

// ObserveBakeDurationSeconds records the duration of one bake.
func (m *Metrics) ObserveBakeDurationSeconds(seconds float64) {
	m.bakeDurationSeconds.Observe(seconds)
}

// AddBakedAnnotations adds the counts of applied and skipped annotations.
func (m *Metrics) AddBakedAnnotations(hostname string, applied, skipped int) {
	m.bakedAnnotationsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Add(float64(applied))
	m.skippedAnnotations.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Add(float64(skipped))
}

// AddOperation adds a counter of the document operation.
func (m *Metrics) AddOperation(kind types.OperationKind, result string) {
	m.operationsTotal.With(prometheus.Labels{
		operationKindLabel: kind.String(),
		resultLabel:        result,
	}).Inc()
}

// SetHistorySnapshots sets the number of snapshots held in memory.
func (m *Metrics) SetHistorySnapshots(count int) {
	m.historySnapshots.Set(float64(count))
}

// AddDroppedSnapshots adds the number of snapshots dropped from a stack.
func (m *Metrics) AddDroppedSnapshots(count int) {
	m.historyEvictedTotal.Add(float64(count))
}

// AddOptimizedSnapshots adds the number of snapshots stripped.
func (m *Metrics) AddOptimizedSnapshots(count int) {
	m.historyOptimizedTotal.Add(float64(count))
}

// AddHistoryStreamConnections increases the number of open streams.
func (m *Metrics) AddHistoryStreamConnections(hostname string) {
	m.historyStreamConnections.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// RemoveHistoryStreamConnections decreases the number of open streams.
func (m *Metrics) RemoveHistoryStreamConnections(hostname string) {
	m.historyStreamConnections.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
