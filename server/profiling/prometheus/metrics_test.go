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

package prometheus_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	t.Run("operation counter test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)

		metrics.AddOperation(types.OperationRotate, prometheus.ResultSuccess)
		metrics.AddOperation(types.OperationRotate, prometheus.ResultSuccess)
		metrics.AddOperation(types.OperationMerge, prometheus.ResultFailure)

		expected := `
# HELP quire_document_operations_total The total count of document operations by kind and result.
# TYPE quire_document_operations_total counter
quire_document_operations_total{operation_kind="merge",result="failure"} 1
quire_document_operations_total{operation_kind="rotate",result="success"} 2
`
		assert.NoError(t, testutil.GatherAndCompare(
			metrics.Registry(),
			strings.NewReader(expected),
			"quire_document_operations_total",
		))
	})

	t.Run("history gauges test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		assert.NoError(t, err)

		metrics.SetHistorySnapshots(7)
		metrics.AddDroppedSnapshots(2)
		metrics.AddOptimizedSnapshots(3)
		metrics.AddBakedAnnotations("host", 5, 1)

		count, err := testutil.GatherAndCount(
			metrics.Registry(),
			"quire_history_snapshots",
			"quire_history_dropped_snapshots_total",
			"quire_history_optimized_snapshots_total",
			"quire_bake_applied_annotations_total",
			"quire_bake_skipped_annotations_total",
		)
		assert.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}
