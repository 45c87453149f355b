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

// Package memory implements the database interface with an in-memory
// database. It is used for testing and for servers without MongoDB.
package memory

import (
	"context"
	"fmt"
	"sort"
	gotime "time"

	"github.com/hashicorp/go-memdb"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// CreateDocInfo stores a new document.
func (d *DB) CreateDocInfo(
	_ context.Context,
	info *database.DocInfo,
) (*database.DocInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	docInfo := info.DeepCopy()
	if docInfo.ID == "" {
		docInfo.ID = types.NewID()
	}

	raw, err := txn.First(tblDocuments, "id", docInfo.ID.String())
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docInfo.ID, err)
	}
	if raw != nil {
		return nil, fmt.Errorf("create document of %s: %w", docInfo.ID, database.ErrDocumentAlreadyExists)
	}

	now := gotime.Now()
	if docInfo.CreatedAt.IsZero() {
		docInfo.CreatedAt = now
	}
	docInfo.UpdatedAt = now

	if err := txn.Insert(tblDocuments, docInfo); err != nil {
		return nil, fmt.Errorf("create document of %s: %w", docInfo.ID, err)
	}
	txn.Commit()

	return docInfo.DeepCopy(), nil
}

// FindDocInfoByID returns the document of the given ID.
func (d *DB) FindDocInfoByID(
	_ context.Context,
	id types.ID,
) (*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("find document of %s: %w", id, database.ErrDocumentNotFound)
	}

	return raw.(*database.DocInfo).DeepCopy(), nil
}

// ListDocInfos returns every document ordered by creation.
func (d *DB) ListDocInfos(_ context.Context) ([]*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblDocuments, "id")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var infos []*database.DocInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.DocInfo).DeepCopy())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})

	return infos, nil
}

// UpdateDocInfo replaces the stored document with the given info.
func (d *DB) UpdateDocInfo(
	_ context.Context,
	info *database.DocInfo,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", info.ID.String())
	if err != nil {
		return fmt.Errorf("find document of %s: %w", info.ID, err)
	}
	if raw == nil {
		return fmt.Errorf("update document of %s: %w", info.ID, database.ErrDocumentNotFound)
	}

	docInfo := info.DeepCopy()
	docInfo.CreatedAt = raw.(*database.DocInfo).CreatedAt
	docInfo.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblDocuments, docInfo); err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, err)
	}
	txn.Commit()

	info.CreatedAt = docInfo.CreatedAt
	info.UpdatedAt = docInfo.UpdatedAt
	return nil
}

// RemoveDocInfo removes the document and all of its snapshots.
func (d *DB) RemoveDocInfo(
	_ context.Context,
	id types.ID,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", id.String())
	if err != nil {
		return fmt.Errorf("find document of %s: %w", id, err)
	}
	if raw == nil {
		return fmt.Errorf("remove document of %s: %w", id, database.ErrDocumentNotFound)
	}

	if err := txn.Delete(tblDocuments, raw); err != nil {
		return fmt.Errorf("remove document of %s: %w", id, err)
	}
	if _, err := txn.DeleteAll(tblSnapshots, "doc_id", id.String()); err != nil {
		return fmt.Errorf("remove snapshots of %s: %w", id, err)
	}
	txn.Commit()

	return nil
}

// CreateSnapshotInfo stores a snapshot of a document's history.
func (d *DB) CreateSnapshotInfo(
	_ context.Context,
	info *database.SnapshotInfo,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSnapshots, "id", info.ID.String())
	if err != nil {
		return fmt.Errorf("find snapshot of %s: %w", info.ID, err)
	}
	if raw != nil {
		return fmt.Errorf("create snapshot of %s: %w", info.ID, database.ErrSnapshotAlreadyExists)
	}

	snapshotInfo := info.DeepCopy()
	if snapshotInfo.CreatedAt.IsZero() {
		snapshotInfo.CreatedAt = gotime.Now()
	}
	if err := txn.Insert(tblSnapshots, snapshotInfo); err != nil {
		return fmt.Errorf("create snapshot of %s: %w", info.ID, err)
	}
	txn.Commit()

	return nil
}

// FindSnapshotInfosByDocID returns the snapshots of the document ordered by
// sequence.
func (d *DB) FindSnapshotInfosByDocID(
	_ context.Context,
	docID types.ID,
) ([]*database.SnapshotInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSnapshots, "doc_id", docID.String())
	if err != nil {
		return nil, fmt.Errorf("find snapshots of %s: %w", docID, err)
	}

	var infos []*database.SnapshotInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.SnapshotInfo).DeepCopy())
	}

	// NOTE: IntFieldIndex keys are varint encoded, so the index order is not
	// the sequence order.
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Seq < infos[j].Seq
	})

	return infos, nil
}

// DeleteSnapshotInfos deletes the snapshots of the given IDs.
func (d *DB) DeleteSnapshotInfos(
	_ context.Context,
	docID types.ID,
	ids []types.ID,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	for _, id := range ids {
		raw, err := txn.First(tblSnapshots, "id", id.String())
		if err != nil {
			return fmt.Errorf("find snapshot of %s: %w", id, err)
		}
		if raw == nil || raw.(*database.SnapshotInfo).DocID != docID {
			continue
		}

		if err := txn.Delete(tblSnapshots, raw); err != nil {
			return fmt.Errorf("delete snapshot of %s: %w", id, err)
		}
	}
	txn.Commit()

	return nil
}

// StripSnapshotInfos drops the byte payloads of the given snapshots.
func (d *DB) StripSnapshotInfos(
	_ context.Context,
	docID types.ID,
	ids []types.ID,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	for _, id := range ids {
		raw, err := txn.First(tblSnapshots, "id", id.String())
		if err != nil {
			return fmt.Errorf("find snapshot of %s: %w", id, err)
		}
		if raw == nil || raw.(*database.SnapshotInfo).DocID != docID {
			continue
		}

		info := raw.(*database.SnapshotInfo).DeepCopy()
		info.Strip()
		if err := txn.Insert(tblSnapshots, info); err != nil {
			return fmt.Errorf("strip snapshot of %s: %w", id, err)
		}
	}
	txn.Commit()

	return nil
}
