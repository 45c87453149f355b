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

package history

import (
	"time"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
)

// Snapshot is one entry of a document's history. It holds enough state to
// restore the document after the operation it records.
type Snapshot struct {
	// ID is the unique ID of the snapshot.
	ID types.ID

	// Kind is the kind of the operation that produced the snapshot.
	Kind types.OperationKind

	// Label is a human-readable description of the operation.
	Label string

	// Timestamp is when the snapshot was captured.
	Timestamp time.Time

	// AffectedPageIDs are the pages the operation touched.
	AffectedPageIDs []string

	// DocumentBytes is the document as it was after the operation.
	DocumentBytes []byte

	// BaseBytes is the clean, unannotated base the document was baked from.
	BaseBytes []byte

	// Pages are the annotation sets of the document after the operation.
	Pages []annotation.PageSet

	// Thumbnails are light page previews keyed by page ID. They survive
	// stripping so the entry can still be shown on a timeline.
	Thumbnails map[string][]byte

	// Stripped is true once the heavy payloads have been dropped. A stripped
	// snapshot is informational only and cannot be restored.
	Stripped bool
}

// Restorable returns whether the document can be restored from this snapshot.
func (s *Snapshot) Restorable() bool {
	return !s.Stripped
}

// Strip drops the byte payloads of the snapshot.
func (s *Snapshot) Strip() {
	s.DocumentBytes = nil
	s.BaseBytes = nil
	s.Stripped = true
}

// Clone returns a deep copy of the snapshot. Byte buffers are copied so the
// caller owns the result.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	c := *s
	c.AffectedPageIDs = append([]string(nil), s.AffectedPageIDs...)
	c.DocumentBytes = cloneBytes(s.DocumentBytes)
	c.BaseBytes = cloneBytes(s.BaseBytes)
	c.Pages = annotation.CloneSets(s.Pages)
	if s.Thumbnails != nil {
		c.Thumbnails = make(map[string][]byte, len(s.Thumbnails))
		for k, v := range s.Thumbnails {
			c.Thumbnails[k] = cloneBytes(v)
		}
	}
	return &c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
