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

// Package documents implements the document service of Quire: upload,
// annotation editing, baking, structural operations and the undo/redo
// history of each document.
package documents

import (
	"context"
	"fmt"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
)

var (
	// ErrDocumentTooLarge is returned when an upload or the result of an
	// operation exceeds the upload limit.
	ErrDocumentTooLarge = errors.ResourceExhausted("document too large").WithCode("ErrDocumentTooLarge")

	// ErrEmptyDocument is returned when an upload has no bytes.
	ErrEmptyDocument = errors.InvalidArgument("empty document").WithCode("ErrEmptyDocument")
)

// CreateDocument stores the uploaded bytes as a new document and captures
// its first snapshot.
func CreateDocument(
	ctx context.Context,
	be *backend.Backend,
	name string,
	data []byte,
) (*database.DocInfo, error) {
	docInfo, err := createDocument(ctx, be, name, data, types.OperationUpload, "upload "+name)
	if err != nil {
		be.Metrics.AddOperation(types.OperationUpload, resultOf(err))
		return nil, err
	}

	be.Metrics.AddOperation(types.OperationUpload, resultOf(nil))
	logging.From(ctx).Infow("document created", "doc", docInfo.ID, "pages", docInfo.TotalPages)
	return docInfo, nil
}

func createDocument(
	ctx context.Context,
	be *backend.Backend,
	name string,
	data []byte,
	kind types.OperationKind,
	label string,
) (*database.DocInfo, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := checkSize(be, data); err != nil {
		return nil, err
	}

	info, err := be.PageInfo(data)
	if err != nil {
		return nil, err
	}

	docInfo, err := be.DB.CreateDocInfo(ctx, &database.DocInfo{
		Name:          name,
		OriginalBytes: data,
		CurrentBytes:  data,
		TotalPages:    info.PageCount,
	})
	if err != nil {
		return nil, err
	}

	locker := be.Lockers.Locker(sync.DocKey(docInfo.ID))
	locker.Lock()
	defer unlock(ctx, locker)

	if _, err := capture(ctx, be, docInfo, kind, label, allPageIDs(info.PageCount)); err != nil {
		return nil, err
	}

	return docInfo, nil
}

// GetDocument returns the document of the given ID.
func GetDocument(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*database.DocInfo, error) {
	return be.DB.FindDocInfoByID(ctx, id)
}

// GetDocumentSummary returns a document summary.
func GetDocumentSummary(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*types.DocumentSummary, error) {
	docInfo, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	state, err := GetHistoryState(ctx, be, id)
	if err != nil {
		return nil, err
	}

	return docInfo.Summary(state), nil
}

// ListDocumentSummaries returns a list of document summaries.
func ListDocumentSummaries(
	ctx context.Context,
	be *backend.Backend,
) ([]*types.DocumentSummary, error) {
	infos, err := be.DB.ListDocInfos(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*types.DocumentSummary, 0, len(infos))
	for _, docInfo := range infos {
		state, err := GetHistoryState(ctx, be, docInfo.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, docInfo.Summary(state))
	}

	return summaries, nil
}

// GetPages returns the page geometry of the current bytes of the document.
func GetPages(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*pdfops.Info, error) {
	docInfo, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return be.PageInfo(docInfo.CurrentBytes)
}

// RemoveDocument removes the document, its stored snapshots and its history
// stack. Open history streams of the document are closed.
func RemoveDocument(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) error {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	if err := be.DB.RemoveDocInfo(ctx, id); err != nil {
		return err
	}

	be.History.Remove(id)
	be.PubSub.CloseDocument(id)

	logging.From(ctx).Infow("document removed", "doc", id)
	return nil
}

func unlock(ctx context.Context, locker sync.Locker) {
	if err := locker.Unlock(); err != nil {
		logging.From(ctx).Error(err)
	}
}

// load finds the document and makes sure its history stack is in memory.
// The caller must hold the document lock.
func load(ctx context.Context, be *backend.Backend, id types.ID) (*database.DocInfo, error) {
	docInfo, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ensureHistory(ctx, be, docInfo); err != nil {
		return nil, err
	}

	return docInfo, nil
}

func allPageIDs(count int) []string {
	indexes := make([]int, count)
	for i := range indexes {
		indexes[i] = i
	}
	return types.PageIDs(indexes...)
}

// pageIDsOf converts the 1-based page numbers of pdfops to page IDs.
func pageIDsOf(pages []int) []string {
	indexes := make([]int, len(pages))
	for i, p := range pages {
		indexes[i] = p - 1
	}
	return types.PageIDs(indexes...)
}

// checkSize rejects document bytes beyond the upload limit. Operations and
// bakes are held to the same limit as uploads, so a stored document never
// outgrows what the database accepts.
func checkSize(be *backend.Backend, data []byte) error {
	if int64(len(data)) > be.Config.MaxUploadBytes {
		return fmt.Errorf(
			"%d bytes exceed %d: %w",
			len(data),
			be.Config.MaxUploadBytes,
			ErrDocumentTooLarge,
		)
	}
	return nil
}
