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
	"github.com/quire-team/quire/pkg/history"
)

// SnapshotInfo is a structure representing information of the snapshot.
type SnapshotInfo struct {
	// ID is the unique ID of the snapshot.
	ID types.ID `bson:"_id"`

	// DocID is the ID of the document which the snapshot belongs to.
	DocID types.ID `bson:"doc_id"`

	// Seq orders the snapshots of a document.
	Seq int64 `bson:"seq"`

	// Kind is the kind of the operation that produced the snapshot.
	Kind types.OperationKind `bson:"kind"`

	// Label is a human-readable description of the operation.
	Label string `bson:"label"`

	// AffectedPageIDs are the pages the operation touched.
	AffectedPageIDs []string `bson:"affected_page_ids"`

	// DocumentBytes is the document after the operation.
	DocumentBytes []byte `bson:"document_bytes"`

	// BaseBytes is the clean base of the document after the operation.
	BaseBytes []byte `bson:"base_bytes"`

	// Pages are the annotation sets after the operation.
	Pages []annotation.PageSet `bson:"pages"`

	// Thumbnails are page previews keyed by page ID.
	Thumbnails map[string][]byte `bson:"thumbnails"`

	// Stripped is true once the byte payloads have been dropped.
	Stripped bool `bson:"stripped"`

	// CreatedAt is the time when the snapshot is captured.
	CreatedAt time.Time `bson:"created_at"`
}

// NewSnapshotInfo creates the stored form of the given history snapshot.
func NewSnapshotInfo(docID types.ID, seq int64, snap *history.Snapshot) *SnapshotInfo {
	c := snap.Clone()
	return &SnapshotInfo{
		ID:              c.ID,
		DocID:           docID,
		Seq:             seq,
		Kind:            c.Kind,
		Label:           c.Label,
		AffectedPageIDs: c.AffectedPageIDs,
		DocumentBytes:   c.DocumentBytes,
		BaseBytes:       c.BaseBytes,
		Pages:           c.Pages,
		Thumbnails:      c.Thumbnails,
		Stripped:        c.Stripped,
		CreatedAt:       c.Timestamp,
	}
}

// ToSnapshot returns the history snapshot of this info.
func (i *SnapshotInfo) ToSnapshot() *history.Snapshot {
	snap := &history.Snapshot{
		ID:              i.ID,
		Kind:            i.Kind,
		Label:           i.Label,
		Timestamp:       i.CreatedAt,
		AffectedPageIDs: i.AffectedPageIDs,
		DocumentBytes:   i.DocumentBytes,
		BaseBytes:       i.BaseBytes,
		Pages:           i.Pages,
		Thumbnails:      i.Thumbnails,
		Stripped:        i.Stripped,
	}
	return snap.Clone()
}

// Strip drops the byte payloads of the snapshot.
func (i *SnapshotInfo) Strip() {
	i.DocumentBytes = nil
	i.BaseBytes = nil
	i.Stripped = true
}

// DeepCopy returns a deep copy of the SnapshotInfo.
func (i *SnapshotInfo) DeepCopy() *SnapshotInfo {
	if i == nil {
		return nil
	}

	c := *i
	c.AffectedPageIDs = append([]string(nil), i.AffectedPageIDs...)
	c.DocumentBytes = cloneBytes(i.DocumentBytes)
	c.BaseBytes = cloneBytes(i.BaseBytes)
	c.Pages = annotation.CloneSets(i.Pages)
	if i.Thumbnails != nil {
		c.Thumbnails = make(map[string][]byte, len(i.Thumbnails))
		for k, v := range i.Thumbnails {
			c.Thumbnails[k] = cloneBytes(v)
		}
	}
	return &c
}
