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

package documents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/documents"
	"github.com/quire-team/quire/test/helper"
)

func lastSnapshot(t *testing.T, be *backend.Backend, id types.ID) *types.SnapshotSummary {
	snapshots, err := documents.ListSnapshots(context.Background(), be, id)
	assert.NoError(t, err)
	assert.NotEmpty(t, snapshots)
	return snapshots[len(snapshots)-1]
}

func TestOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("rotate test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		data := helper.LetterPDF(t, 3)
		docInfo, err := documents.CreateDocument(ctx, be, helper.TestDocName(t), data)
		assert.NoError(t, err)

		rotated, err := documents.Rotate(ctx, be, docInfo.ID, 90, []string{"2-3"})
		assert.NoError(t, err)
		assert.Equal(t, 3, rotated.TotalPages)
		assert.NotEqual(t, data, rotated.OriginalBytes)
		assert.Equal(t, rotated.OriginalBytes, rotated.CurrentBytes)

		snap := lastSnapshot(t, be, docInfo.ID)
		assert.Equal(t, types.OperationRotate, snap.Kind)
		assert.Equal(t, []string{"page-2", "page-3"}, snap.AffectedPageIDs)

		_, err = documents.Rotate(ctx, be, docInfo.ID, 45, nil)
		assert.ErrorIs(t, err, pdfops.ErrUnsupportedOperation)
		_, err = documents.Rotate(ctx, be, docInfo.ID, 90, []string{"7"})
		assert.ErrorIs(t, err, pdfops.ErrInvalidPageRange)

		state, err := documents.GetHistoryState(ctx, be, docInfo.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, state.Length)
	})

	t.Run("operations re-bake annotations test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, helper.TestDocName(t), helper.LetterPDF(t, 2))
		assert.NoError(t, err)
		_, err = documents.SetPageAnnotations(ctx, be, docInfo.ID, annotatedSet(0))
		assert.NoError(t, err)

		rotated, err := documents.Rotate(ctx, be, docInfo.ID, 180, nil)
		assert.NoError(t, err)
		assert.NotEqual(t, rotated.OriginalBytes, rotated.CurrentBytes)
		assert.Len(t, rotated.Pages, 1)

		// Undo returns to the upload, which has neither marks nor rotation.
		_, ok, err := documents.Undo(ctx, be, docInfo.ID)
		assert.NoError(t, err)
		assert.True(t, ok)
		stored, err := documents.GetDocument(ctx, be, docInfo.ID)
		assert.NoError(t, err)
		assert.Equal(t, docInfo.OriginalBytes, stored.OriginalBytes)
	})

	t.Run("delete pages test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, helper.TestDocName(t), helper.LetterPDF(t, 3))
		assert.NoError(t, err)
		_, err = documents.SetPageAnnotations(ctx, be, docInfo.ID, annotatedSet(0))
		assert.NoError(t, err)
		_, err = documents.SetPageAnnotations(ctx, be, docInfo.ID, annotatedSet(2))
		assert.NoError(t, err)

		deleted, err := documents.DeletePages(ctx, be, docInfo.ID, []string{"1"})
		assert.NoError(t, err)
		assert.Equal(t, 2, deleted.TotalPages)
		assert.Len(t, deleted.Pages, 1)
		assert.Equal(t, 1, deleted.Pages[0].PageIndex)

		snap := lastSnapshot(t, be, docInfo.ID)
		assert.Equal(t, types.OperationDelete, snap.Kind)
		assert.Equal(t, []string{"page-1"}, snap.AffectedPageIDs)

		_, err = documents.DeletePages(ctx, be, docInfo.ID, []string{"1-2"})
		assert.ErrorIs(t, err, pdfops.ErrInvalidPageRange)
	})

	t.Run("merge test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		target, err := documents.CreateDocument(ctx, be, "target.pdf", helper.LetterPDF(t, 2))
		assert.NoError(t, err)
		other, err := documents.CreateDocument(ctx, be, "other.pdf", helper.LetterPDF(t, 3))
		assert.NoError(t, err)

		merged, err := documents.Merge(ctx, be, target.ID, other.ID)
		assert.NoError(t, err)
		assert.Equal(t, 5, merged.TotalPages)

		snap := lastSnapshot(t, be, target.ID)
		assert.Equal(t, types.OperationMerge, snap.Kind)
		assert.Equal(t, []string{"page-3", "page-4", "page-5"}, snap.AffectedPageIDs)

		// The source document is left as it was.
		stored, err := documents.GetDocument(ctx, be, other.ID)
		assert.NoError(t, err)
		assert.Equal(t, 3, stored.TotalPages)

		_, err = documents.Merge(ctx, be, target.ID)
		assert.ErrorIs(t, err, pdfops.ErrUnsupportedOperation)
		_, err = documents.Merge(ctx, be, target.ID, types.NewID())
		assert.Error(t, err)
	})

	t.Run("merge beyond the upload limit test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		targetData, otherData := helper.LetterPDF(t, 2), helper.LetterPDF(t, 3)
		be.Config.MaxUploadBytes = int64(max(len(targetData), len(otherData)))

		target, err := documents.CreateDocument(ctx, be, "target.pdf", targetData)
		assert.NoError(t, err)
		other, err := documents.CreateDocument(ctx, be, "other.pdf", otherData)
		assert.NoError(t, err)

		_, err = documents.Merge(ctx, be, target.ID, other.ID)
		assert.ErrorIs(t, err, documents.ErrDocumentTooLarge)

		stored, err := documents.GetDocument(ctx, be, target.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, stored.TotalPages)
		assert.Equal(t, types.OperationUpload, lastSnapshot(t, be, target.ID).Kind)
	})

	t.Run("watermark test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, helper.TestDocName(t), helper.LetterPDF(t, 2))
		assert.NoError(t, err)

		marked, err := documents.Watermark(ctx, be, docInfo.ID, pdfops.WatermarkOptions{
			Text:  "DRAFT",
			Pages: []string{"1"},
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, marked.TotalPages)
		assert.Equal(t, []string{"page-1"}, lastSnapshot(t, be, docInfo.ID).AffectedPageIDs)

		_, err = documents.Watermark(ctx, be, docInfo.ID, pdfops.WatermarkOptions{})
		assert.ErrorIs(t, err, pdfops.ErrUnsupportedOperation)
	})

	t.Run("compress test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, helper.TestDocName(t), helper.LetterPDF(t, 2))
		assert.NoError(t, err)

		compressed, err := documents.Compress(ctx, be, docInfo.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, compressed.TotalPages)

		snap := lastSnapshot(t, be, docInfo.ID)
		assert.Equal(t, types.OperationCompress, snap.Kind)
		assert.Len(t, snap.AffectedPageIDs, 2)
	})

	t.Run("split test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, "book.pdf", helper.LetterPDF(t, 5))
		assert.NoError(t, err)

		parts, err := documents.Split(ctx, be, docInfo.ID, 2)
		assert.NoError(t, err)
		assert.Len(t, parts, 3)
		assert.Equal(t, "book-part-1-2.pdf", parts[0].Name)
		assert.Equal(t, "book-part-5-5.pdf", parts[2].Name)
		assert.Equal(t, 2, parts[0].TotalPages)
		assert.Equal(t, 1, parts[2].TotalPages)

		snap := lastSnapshot(t, be, parts[1].ID)
		assert.Equal(t, types.OperationSplit, snap.Kind)

		state, err := documents.GetHistoryState(ctx, be, docInfo.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, state.Length)

		_, err = documents.Split(ctx, be, docInfo.ID, 0)
		assert.ErrorIs(t, err, pdfops.ErrUnsupportedOperation)
	})

	t.Run("annotations of split parts are not carried test", func(t *testing.T) {
		be := newBackend(t, helper.MaxSnapshots)
		docInfo, err := documents.CreateDocument(ctx, be, "notes.pdf", helper.LetterPDF(t, 2))
		assert.NoError(t, err)
		_, err = documents.SetPageAnnotations(ctx, be, docInfo.ID, annotatedSet(1))
		assert.NoError(t, err)

		parts, err := documents.Split(ctx, be, docInfo.ID, 1)
		assert.NoError(t, err)
		assert.Len(t, parts, 2)
		assert.Equal(t, 0, annotation.Count(parts[1].Pages))
	})
}
