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
	"strings"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
)

// change is the outcome of a structural operation on the clean base.
type change struct {
	result *pdfops.Result
	label  string

	// pages are the annotation sets matching the new base.
	pages []annotation.PageSet

	// affected are the 1-based pages of the new base to record in history.
	affected []int
}

// mutate applies op to the clean base of the document, re-bakes the
// annotation sets on top of the new base and captures a snapshot.
func mutate(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	kind types.OperationKind,
	op func(docInfo *database.DocInfo) (*change, error),
) (*database.DocInfo, error) {
	docInfo, err := mutateLocked(ctx, be, id, kind, op)
	be.Metrics.AddOperation(kind, resultOf(err))
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Infow("document changed", "doc", id, "kind", kind, "pages", docInfo.TotalPages)
	return docInfo, nil
}

func mutateLocked(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	kind types.OperationKind,
	op func(docInfo *database.DocInfo) (*change, error),
) (*database.DocInfo, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := load(ctx, be, id)
	if err != nil {
		return nil, err
	}

	c, err := op(docInfo.DeepCopy())
	if err != nil {
		return nil, err
	}

	if err := checkSize(be, c.result.Bytes); err != nil {
		return nil, err
	}
	current := c.result.Bytes
	if annotation.Count(c.pages) > 0 {
		if current, _, err = bakePages(ctx, be, id, c.result.Bytes, c.pages); err != nil {
			return nil, err
		}
		if err := checkSize(be, current); err != nil {
			return nil, err
		}
	}

	docInfo.OriginalBytes = c.result.Bytes
	docInfo.CurrentBytes = current
	docInfo.Pages = c.pages
	docInfo.TotalPages = c.result.PageCount
	if _, err := capture(ctx, be, docInfo, kind, c.label, pageIDsOf(c.affected)); err != nil {
		return nil, err
	}

	return docInfo, nil
}

// Rotate rotates the selected pages of the document clockwise. An empty
// selection means every page.
func Rotate(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	degrees int,
	selection []string,
) (*database.DocInfo, error) {
	return mutate(ctx, be, id, types.OperationRotate, func(docInfo *database.DocInfo) (*change, error) {
		result, err := pdfops.Rotate(docInfo.OriginalBytes, degrees, selection)
		if err != nil {
			return nil, err
		}

		return &change{
			result:   result,
			label:    fmt.Sprintf("rotate pages %s by %d", result.Metadata["pages"], degrees),
			pages:    docInfo.Pages,
			affected: result.AffectedPages,
		}, nil
	})
}

// DeletePages removes the selected pages of the document. The annotation
// sets of the removed pages are dropped and the later sets move up.
func DeletePages(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	selection []string,
) (*database.DocInfo, error) {
	return mutate(ctx, be, id, types.OperationDelete, func(docInfo *database.DocInfo) (*change, error) {
		result, err := pdfops.DeletePages(docInfo.OriginalBytes, selection)
		if err != nil {
			return nil, err
		}

		deleted := make([]int, len(result.AffectedPages))
		for i, p := range result.AffectedPages {
			deleted[i] = p - 1
		}

		// NOTE: The removed pages no longer exist in the new base, so the
		// snapshot records them by their IDs in the old one.
		return &change{
			result:   result,
			label:    "delete pages " + result.Metadata["pages"],
			pages:    annotation.Reindex(docInfo.Pages, deleted),
			affected: result.AffectedPages,
		}, nil
	})
}

// Merge appends the current pages of the other documents to the document.
func Merge(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	otherIDs ...types.ID,
) (*database.DocInfo, error) {
	others := make([][]byte, 0, len(otherIDs))
	for _, otherID := range otherIDs {
		other, err := be.DB.FindDocInfoByID(ctx, otherID)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", otherID, err)
		}
		others = append(others, other.CurrentBytes)
	}

	return mutate(ctx, be, id, types.OperationMerge, func(docInfo *database.DocInfo) (*change, error) {
		result, err := pdfops.Merge(append([][]byte{docInfo.OriginalBytes}, others...)...)
		if err != nil {
			return nil, err
		}

		var appended []int
		for p := docInfo.TotalPages + 1; p <= result.PageCount; p++ {
			appended = append(appended, p)
		}

		return &change{
			result:   result,
			label:    fmt.Sprintf("merge %d documents", len(others)),
			pages:    docInfo.Pages,
			affected: appended,
		}, nil
	})
}

// Watermark stamps text on the selected pages of the document.
func Watermark(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	opts pdfops.WatermarkOptions,
) (*database.DocInfo, error) {
	return mutate(ctx, be, id, types.OperationWatermark, func(docInfo *database.DocInfo) (*change, error) {
		result, err := pdfops.Watermark(docInfo.OriginalBytes, opts)
		if err != nil {
			return nil, err
		}

		return &change{
			result:   result,
			label:    fmt.Sprintf("watermark %q", opts.Text),
			pages:    docInfo.Pages,
			affected: result.AffectedPages,
		}, nil
	})
}

// Compress rewrites the document with duplicate objects removed.
func Compress(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*database.DocInfo, error) {
	return mutate(ctx, be, id, types.OperationCompress, func(docInfo *database.DocInfo) (*change, error) {
		result, err := pdfops.Compress(docInfo.OriginalBytes)
		if err != nil {
			return nil, err
		}

		return &change{
			result: result,
			label: fmt.Sprintf(
				"compress %s to %s bytes",
				result.Metadata["originalSize"],
				result.Metadata["compressedSize"],
			),
			pages:    docInfo.Pages,
			affected: result.AffectedPages,
		}, nil
	})
}

// Split cuts the current bytes of the document into parts of span pages and
// stores each part as a new document. The source document is not changed.
func Split(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	span int,
) ([]*database.DocInfo, error) {
	infos, err := split(ctx, be, id, span)
	be.Metrics.AddOperation(types.OperationSplit, resultOf(err))
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Infow("document split", "doc", id, "parts", len(infos))
	return infos, nil
}

func split(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	span int,
) ([]*database.DocInfo, error) {
	docInfo, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	parts, err := pdfops.Split(docInfo.CurrentBytes, span)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(docInfo.Name, ".pdf")
	infos := make([]*database.DocInfo, 0, len(parts))
	for _, part := range parts {
		name := fmt.Sprintf("%s-part-%d-%d.pdf", stem, part.From, part.Thru)
		label := fmt.Sprintf("split pages %d-%d of %s", part.From, part.Thru, docInfo.Name)
		info, err := createDocument(ctx, be, name, part.Bytes, types.OperationSplit, label)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}
