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

package database

import (
	"time"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
)

// DocInfo is a structure representing information of the document.
type DocInfo struct {
	// ID is the unique ID of the document.
	ID types.ID `bson:"_id"`

	// Name is the name given at upload.
	Name string `bson:"name"`

	// OriginalBytes is the clean base the annotations are baked onto. It is
	// only replaced by structural operations.
	OriginalBytes []byte `bson:"original_bytes"`

	// CurrentBytes is the latest rendition of the document.
	CurrentBytes []byte `bson:"current_bytes"`

	// Pages are the annotation sets of the document.
	Pages []annotation.PageSet `bson:"pages"`

	// TotalPages is the number of pages of the current bytes.
	TotalPages int `bson:"total_pages"`

	// CurrentSnapshotID is the ID of the snapshot at the history cursor.
	CurrentSnapshotID types.ID `bson:"current_snapshot_id"`

	// SnapshotSeq is the sequence number of the last captured snapshot.
	SnapshotSeq int64 `bson:"snapshot_seq"`

	// CreatedAt is the time when the document is created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time when the document is updated.
	UpdatedAt time.Time `bson:"updated_at"`
}

// IncreaseSnapshotSeq increases the snapshot sequence of the document.
func (info *DocInfo) IncreaseSnapshotSeq() int64 {
	info.SnapshotSeq++
	return info.SnapshotSeq
}

// Summary returns the summary of the document for the given history state.
func (info *DocInfo) Summary(state types.HistoryState) *types.DocumentSummary {
	return &types.DocumentSummary{
		ID:              info.ID,
		Name:            info.Name,
		TotalPages:      info.TotalPages,
		AnnotationCount: annotation.Count(info.Pages),
		Size:            len(info.CurrentBytes),
		History:         state,
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	}
}

// DeepCopy returns a deep copy of the DocInfo.
func (info *DocInfo) DeepCopy() *DocInfo {
	if info == nil {
		return nil
	}

	return &DocInfo{
		ID:                info.ID,
		Name:              info.Name,
		OriginalBytes:     cloneBytes(info.OriginalBytes),
		CurrentBytes:      cloneBytes(info.CurrentBytes),
		Pages:             annotation.CloneSets(info.Pages),
		TotalPages:        info.TotalPages,
		CurrentSnapshotID: info.CurrentSnapshotID,
		SnapshotSeq:       info.SnapshotSeq,
		CreatedAt:         info.CreatedAt,
		UpdatedAt:         info.UpdatedAt,
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
