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
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/pkg/thumbnail"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/backend/sync"
	"github.com/quire-team/quire/server/logging"
	"github.com/quire-team/quire/server/profiling/prometheus"
)

// CaptureSnapshot records the current state of the document as a new entry
// of its history.
func CaptureSnapshot(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	kind types.OperationKind,
	label string,
	affectedPageIDs []string,
) (*history.Snapshot, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := load(ctx, be, id)
	if err != nil {
		return nil, err
	}

	return capture(ctx, be, docInfo, kind, label, affectedPageIDs)
}

// capture pushes the state of docInfo onto the history and persists both the
// snapshot and docInfo. Snapshots discarded by the push are deleted from the
// database. The caller must hold the document lock.
func capture(
	ctx context.Context,
	be *backend.Backend,
	docInfo *database.DocInfo,
	kind types.OperationKind,
	label string,
	affectedPageIDs []string,
) (*history.Snapshot, error) {
	thumbnails, err := thumbnail.GenerateAll(ctx, be.Rasterizer, docInfo.CurrentBytes, be.Config.ThumbnailWidth)
	if err != nil {
		return nil, err
	}

	snap := &history.Snapshot{
		ID:              types.NewID(),
		Kind:            kind,
		Label:           label,
		Timestamp:       time.Now(),
		AffectedPageIDs: affectedPageIDs,
		DocumentBytes:   docInfo.CurrentBytes,
		BaseBytes:       docInfo.OriginalBytes,
		Pages:           docInfo.Pages,
		Thumbnails:      thumbnails,
	}

	// NOTE: The stack is pushed first so the database never holds a snapshot
	// the store has evicted. On a database failure the stack is dropped and
	// rebuilt from the database on the next access.
	dropped, state := be.History.Capture(docInfo.ID, snap)
	if err := persist(ctx, be, docInfo, snap, dropped); err != nil {
		be.History.Remove(docInfo.ID)
		return nil, err
	}

	if len(dropped) > 0 {
		be.Metrics.AddDroppedSnapshots(len(dropped))
	}

	logging.From(ctx).Debugw(
		"snapshot captured",
		"doc", docInfo.ID,
		"kind", kind,
		"index", state.Index,
		"dropped", len(dropped),
	)

	return snap.Clone(), nil
}

func persist(
	ctx context.Context,
	be *backend.Backend,
	docInfo *database.DocInfo,
	snap *history.Snapshot,
	dropped []*history.Snapshot,
) error {
	seq := docInfo.IncreaseSnapshotSeq()
	if err := be.DB.CreateSnapshotInfo(ctx, database.NewSnapshotInfo(docInfo.ID, seq, snap)); err != nil {
		return err
	}

	if len(dropped) > 0 {
		ids := make([]types.ID, len(dropped))
		for i, d := range dropped {
			ids[i] = d.ID
		}
		if err := be.DB.DeleteSnapshotInfos(ctx, docInfo.ID, ids); err != nil {
			return err
		}
	}

	docInfo.CurrentSnapshotID = snap.ID
	return be.DB.UpdateDocInfo(ctx, docInfo)
}

// Undo moves the history of the document one entry back and restores the
// document to it. It returns false when there is nothing to undo.
func Undo(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*history.Snapshot, bool, error) {
	return move(ctx, be, id, -1, be.History.Undo)
}

// Redo moves the history of the document one entry forward and restores the
// document to it. It returns false when there is nothing to redo.
func Redo(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (*history.Snapshot, bool, error) {
	return move(ctx, be, id, 1, be.History.Redo)
}

func move(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	step int,
	fn func(types.ID) (*history.Snapshot, bool),
) (*history.Snapshot, bool, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := load(ctx, be, id)
	if err != nil {
		return nil, false, err
	}

	// A stripped target is refused before the cursor moves.
	target, ok := be.History.Peek(id, be.History.State(id).Index+step)
	if !ok {
		return nil, false, nil
	}
	if !target.Restorable() {
		return nil, false, fmt.Errorf("snapshot %s: %w", target.ID, history.ErrSnapshotNotRestorable)
	}

	snap, ok := fn(id)
	if !ok {
		return nil, false, nil
	}

	if err := restore(ctx, be, docInfo, snap); err != nil {
		return nil, false, err
	}

	return snap, true, nil
}

// JumpTo moves the history of the document to the given index and restores
// the document to it.
func JumpTo(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	index int,
) (*history.Snapshot, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := load(ctx, be, id)
	if err != nil {
		return nil, err
	}

	target, ok := be.History.Peek(id, index)
	if !ok {
		return nil, fmt.Errorf(
			"jump to %d of %d: %w",
			index,
			be.History.State(id).Length,
			history.ErrIndexOutOfRange,
		)
	}
	if !target.Restorable() {
		return nil, fmt.Errorf("snapshot %s: %w", target.ID, history.ErrSnapshotNotRestorable)
	}

	snap, err := be.History.JumpTo(id, index)
	if err != nil {
		return nil, err
	}

	if err := restore(ctx, be, docInfo, snap); err != nil {
		return nil, err
	}

	return snap, nil
}

// restore writes the state recorded in snap back into the document.
func restore(
	ctx context.Context,
	be *backend.Backend,
	docInfo *database.DocInfo,
	snap *history.Snapshot,
) error {
	info, err := be.PageInfo(snap.DocumentBytes)
	if err != nil {
		be.History.Remove(docInfo.ID)
		return err
	}

	docInfo.OriginalBytes = snap.BaseBytes
	docInfo.CurrentBytes = snap.DocumentBytes
	docInfo.Pages = snap.Pages
	docInfo.TotalPages = info.PageCount
	docInfo.CurrentSnapshotID = snap.ID
	if err := be.DB.UpdateDocInfo(ctx, docInfo); err != nil {
		be.History.Remove(docInfo.ID)
		return err
	}

	logging.From(ctx).Debugw("snapshot restored", "doc", docInfo.ID, "snapshot", snap.ID)
	return nil
}

// GetHistoryState returns the undo/redo availability of the document.
func GetHistoryState(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) (types.HistoryState, error) {
	if be.History.Has(id) {
		return be.History.State(id), nil
	}

	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	if _, err := load(ctx, be, id); err != nil {
		return types.HistoryState{}, err
	}

	return be.History.State(id), nil
}

// ListSnapshots returns the timeline of the document, oldest first.
func ListSnapshots(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
) ([]*types.SnapshotSummary, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	if _, err := load(ctx, be, id); err != nil {
		return nil, err
	}

	cursor := be.History.State(id).Index
	snapshots := be.History.Snapshots(id)
	summaries := make([]*types.SnapshotSummary, len(snapshots))
	for i, snap := range snapshots {
		summaries[i] = &types.SnapshotSummary{
			ID:              snap.ID,
			Index:           i,
			Kind:            snap.Kind,
			Label:           snap.Label,
			AffectedPageIDs: snap.AffectedPageIDs,
			Restorable:      snap.Restorable(),
			Current:         i == cursor,
			CreatedAt:       snap.Timestamp,
		}
	}

	return summaries, nil
}

// ensureHistory rebuilds the history stack of the document from the
// database when the store does not hold it. The cursor is placed on the
// current snapshot of the document, or on the newest one when it is gone.
func ensureHistory(ctx context.Context, be *backend.Backend, docInfo *database.DocInfo) error {
	if be.History.Has(docInfo.ID) {
		return nil
	}

	infos, err := be.DB.FindSnapshotInfosByDocID(ctx, docInfo.ID)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}

	cursor := len(infos) - 1
	snapshots := make([]*history.Snapshot, len(infos))
	for i, info := range infos {
		snapshots[i] = info.ToSnapshot()
		if info.ID == docInfo.CurrentSnapshotID {
			cursor = i
		}
	}

	if err := be.History.Restore(docInfo.ID, snapshots, cursor); err != nil {
		return err
	}

	logging.From(ctx).Infow("history restored", "doc", docInfo.ID, "snapshots", len(snapshots))
	return nil
}

func resultOf(err error) string {
	if err != nil {
		return prometheus.ResultFailure
	}
	return prometheus.ResultSuccess
}
