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

package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/server/backend/database"
)

func TestDocInfo(t *testing.T) {
	t.Run("snapshot sequence test", func(t *testing.T) {
		docInfo := &database.DocInfo{ID: types.ID("doc1")}

		assert.Equal(t, int64(1), docInfo.IncreaseSnapshotSeq())
		assert.Equal(t, int64(2), docInfo.IncreaseSnapshotSeq())
		assert.Equal(t, int64(2), docInfo.SnapshotSeq)
	})

	t.Run("deep copy test", func(t *testing.T) {
		set := annotation.NewPageSet(0, 800, 600).Add(annotation.New(
			annotation.KindRectangle,
			annotation.Position{X: 10, Y: 10, Width: 50, Height: 20},
			annotation.Style{StrokeColor: "#ff0000", StrokeWidth: 2, Opacity: annotation.Opacity(1)},
			annotation.Content{},
		))
		docInfo := &database.DocInfo{
			ID:            types.ID("doc1"),
			OriginalBytes: []byte("original"),
			CurrentBytes:  []byte("current"),
			Pages:         []annotation.PageSet{set},
		}

		clone := docInfo.DeepCopy()
		clone.CurrentBytes[0] = 'X'
		clone.Pages[0].Annotations[0].Position.X = 99

		assert.Equal(t, "current", string(docInfo.CurrentBytes))
		assert.Equal(t, float64(10), docInfo.Pages[0].Annotations[0].Position.X)
		assert.Nil(t, (*database.DocInfo)(nil).DeepCopy())
	})

	t.Run("summary test", func(t *testing.T) {
		now := time.Now()
		docInfo := &database.DocInfo{
			ID:           types.ID("doc1"),
			Name:         "report.pdf",
			CurrentBytes: []byte("12345"),
			TotalPages:   3,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		summary := docInfo.Summary(types.NewHistoryState(0, 1))
		assert.Equal(t, "report.pdf", summary.Name)
		assert.Equal(t, 5, summary.Size)
		assert.Equal(t, 3, summary.TotalPages)
		assert.Equal(t, 0, summary.AnnotationCount)
		assert.Equal(t, 1, summary.History.Length)
	})
}

func TestSnapshotInfo(t *testing.T) {
	t.Run("history snapshot round trip test", func(t *testing.T) {
		snap := &history.Snapshot{
			ID:              types.NewID(),
			Kind:            types.OperationRotate,
			Label:           "rotate 90",
			Timestamp:       time.Now(),
			AffectedPageIDs: []string{"page-1"},
			DocumentBytes:   []byte("doc"),
			BaseBytes:       []byte("base"),
			Thumbnails:      map[string][]byte{"page-1": []byte("png")},
		}

		info := database.NewSnapshotInfo("doc1", 3, snap)
		assert.Equal(t, types.ID("doc1"), info.DocID)
		assert.Equal(t, int64(3), info.Seq)

		snap.DocumentBytes[0] = 'X'
		assert.Equal(t, "doc", string(info.DocumentBytes))

		restored := info.ToSnapshot()
		assert.Equal(t, snap.ID, restored.ID)
		assert.Equal(t, "rotate 90", restored.Label)
		assert.True(t, restored.Restorable())
	})

	t.Run("strip test", func(t *testing.T) {
		info := &database.SnapshotInfo{
			DocumentBytes: []byte("doc"),
			BaseBytes:     []byte("base"),
			Thumbnails:    map[string][]byte{"page-1": []byte("png")},
		}
		info.Strip()

		assert.Nil(t, info.DocumentBytes)
		assert.Nil(t, info.BaseBytes)
		assert.True(t, info.Stripped)
		assert.Len(t, info.Thumbnails, 1)
		assert.False(t, info.ToSnapshot().Restorable())
	})
}
