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

// Package database provides the database interface for the Quire backend.
package database

import (
	"context"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/errors"
)

var (
	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrDocumentAlreadyExists is returned when a document of the same ID
	// already exists.
	ErrDocumentAlreadyExists = errors.AlreadyExists("document already exists").WithCode("ErrDocumentAlreadyExists")

	// ErrSnapshotNotFound is returned when the snapshot could not be found.
	ErrSnapshotNotFound = errors.NotFound("snapshot not found").WithCode("ErrSnapshotNotFound")

	// ErrSnapshotAlreadyExists is returned when a snapshot of the same ID
	// already exists.
	ErrSnapshotAlreadyExists = errors.AlreadyExists("snapshot already exists").WithCode("ErrSnapshotAlreadyExists")
)

// Database represents database which reads or saves Quire data.
type Database interface {
	// Close all resources of this database.
	Close() error

	// CreateDocInfo stores a new document. The ID of the given info is
	// assigned when empty.
	CreateDocInfo(ctx context.Context, info *DocInfo) (*DocInfo, error)

	// FindDocInfoByID returns the document of the given ID.
	FindDocInfoByID(ctx context.Context, id types.ID) (*DocInfo, error)

	// ListDocInfos returns every document ordered by creation.
	ListDocInfos(ctx context.Context) ([]*DocInfo, error)

	// UpdateDocInfo replaces the stored document with the given info.
	UpdateDocInfo(ctx context.Context, info *DocInfo) error

	// RemoveDocInfo removes the document and all of its snapshots.
	RemoveDocInfo(ctx context.Context, id types.ID) error

	// CreateSnapshotInfo stores a snapshot of a document's history.
	CreateSnapshotInfo(ctx context.Context, info *SnapshotInfo) error

	// FindSnapshotInfosByDocID returns the snapshots of the document ordered
	// by sequence.
	FindSnapshotInfosByDocID(ctx context.Context, docID types.ID) ([]*SnapshotInfo, error)

	// DeleteSnapshotInfos deletes the snapshots of the given IDs. Absent IDs
	// are ignored.
	DeleteSnapshotInfos(ctx context.Context, docID types.ID, ids []types.ID) error

	// StripSnapshotInfos drops the byte payloads of the snapshots of the
	// given IDs and marks them stripped.
	StripSnapshotInfos(ctx context.Context, docID types.ID, ids []types.ID) error
}
