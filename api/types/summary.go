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

package types

import (
	"time"
)

// DocumentSummary represents a summary of a document without its bytes.
type DocumentSummary struct {
	// ID is the unique identifier of the document.
	ID ID `json:"id"`

	// Name is the name given at upload.
	Name string `json:"name"`

	// TotalPages is the number of pages of the current bytes.
	TotalPages int `json:"totalPages"`

	// AnnotationCount is the number of annotations across all pages.
	AnnotationCount int `json:"annotationCount"`

	// Size is the length of the current bytes.
	Size int `json:"size"`

	// History is the history state of the document.
	History HistoryState `json:"history"`

	// CreatedAt is the time when the document is created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the time when the document is last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotSummary is a timeline entry of a document's history.
type SnapshotSummary struct {
	ID              ID            `json:"id"`
	Index           int           `json:"index"`
	Kind            OperationKind `json:"kind"`
	Label           string        `json:"label"`
	AffectedPageIDs []string      `json:"affectedPageIds"`
	Restorable      bool          `json:"restorable"`
	Current         bool          `json:"current"`
	CreatedAt       time.Time     `json:"createdAt"`
}
