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

package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/bake"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
)

// BakeAnnotations draws the annotation sets of the document into a fresh
// copy of its clean base and stores the result as the current bytes. The
// bake always starts from the base, so baking twice never doubles a mark.
// On failure the current bytes are left as they were.
func BakeAnnotations(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) ([]byte, *bake.Report, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := load(ctx, be, id)
	if err != nil {
		return nil, nil, err
	}

	out, report, err := bakePages(ctx, be, docInfo.ID, docInfo.OriginalBytes, docInfo.Pages)
	if err != nil {
		be.Metrics.AddOperation(types.OperationBake, resultOf(err))
		return nil, nil, err
	}

	if err := checkSize(be, out); err != nil {
		be.Metrics.AddOperation(types.OperationBake, resultOf(err))
		return nil, nil, err
	}

	docInfo.CurrentBytes = out
	label := fmt.Sprintf("bake %d annotations", report.Applied)
	if _, err := capture(ctx, be, docInfo, types.OperationBake, label, annotatedPageIDs(docInfo.Pages)); err != nil {
		be.Metrics.AddOperation(types.OperationBake, resultOf(err))
		return nil, nil, err
	}

	be.Metrics.AddOperation(types.OperationBake, resultOf(nil))
	return out, report, nil
}

// bakePages runs the bake engine and records its outcome.
func bakePages(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	base []byte,
	sets []annotation.PageSet,
) ([]byte, *bake.Report, error) {
	start := time.Now()
	out, report, err := bake.Bake(base, sets)
	if err != nil {
		return nil, nil, err
	}
	be.Metrics.ObserveBakeDurationSeconds(time.Since(start).Seconds())
	be.Metrics.AddBakedAnnotations(be.Config.Hostname, report.Applied, len(report.Skipped))

	logger := logging.From(ctx)
	for _, skipped := range report.Skipped {
		logger.Warnw(
			"annotation skipped",
			"doc", id,
			"annotation", skipped.AnnotationID,
			"page", skipped.PageIndex,
			"error", skipped.Err,
		)
	}

	return out, report, nil
}

func annotatedPageIDs(sets []annotation.PageSet) []string {
	var indexes []int
	for _, set := range sets {
		if len(set.Annotations) > 0 {
			indexes = append(indexes, set.PageIndex)
		}
	}
	return types.PageIDs(indexes...)
}
