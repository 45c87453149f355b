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

package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/documents"
)

// HistoryResponse is the body of a move on the history.
type HistoryResponse struct {
	Snapshot *types.SnapshotSummary `json:"snapshot"`
	History  types.HistoryState     `json:"history"`
}

// JumpRequest is the body of a jump on the timeline.
type JumpRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

type moveFunc func(ctx context.Context, be *backend.Backend, id types.ID) (*history.Snapshot, bool, error)

func (h *handlers) getHistoryState(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	state, err := documents.GetHistoryState(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *handlers) listSnapshots(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	snapshots, err := documents.ListSnapshots(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

func (h *handlers) undo(c *gin.Context) {
	h.move(c, "undo", documents.Undo)
}

func (h *handlers) redo(c *gin.Context) {
	h.move(c, "redo", documents.Redo)
}

// move answers 409 with ErrHistoryUnavailable when there is nothing to move
// to.
func (h *handlers) move(c *gin.Context, name string, fn moveFunc) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	snap, ok, err := fn(ctx, h.be, id)
	if err != nil {
		abort(c, err)
		return
	}
	if !ok {
		abort(c, fmt.Errorf("nothing to %s: %w", name, history.ErrHistoryUnavailable))
		return
	}

	h.respondMove(c, id, snap)
}

func (h *handlers) jump(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req JumpRequest
	if !bindJSON(c, &req) {
		return
	}

	snap, err := documents.JumpTo(c.Request.Context(), h.be, id, *req.Index)
	if err != nil {
		abort(c, err)
		return
	}

	h.respondMove(c, id, snap)
}

func (h *handlers) respondMove(c *gin.Context, id types.ID, snap *history.Snapshot) {
	state, err := documents.GetHistoryState(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		Snapshot: &types.SnapshotSummary{
			ID:              snap.ID,
			Index:           state.Index,
			Kind:            snap.Kind,
			Label:           snap.Label,
			AffectedPageIDs: snap.AffectedPageIDs,
			Restorable:      snap.Restorable(),
			Current:         true,
			CreatedAt:       snap.Timestamp,
		},
		History: state,
	})
}
