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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"fmt"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/server/backend/database"
)

func newDocInfo(name string) *database.DocInfo {
	set := annotation.NewPageSet(0, 800, 600).Add(annotation.New(
		annotation.KindText,
		annotation.Position{X: 10, Y: 10, Width: 100, Height: 20},
		annotation.Style{StrokeColor: "#000000", Opacity: annotation.Opacity(1), FontSize: 12},
		annotation.Content{Text: "hello"},
	))

	return &database.DocInfo{
		Name:          name,
		OriginalBytes: []byte("%PDF-original"),
		CurrentBytes:  []byte("%PDF-current"),
		Pages:         []annotation.PageSet{set},
		TotalPages:    1,
	}
}

func newSnapshotInfo(docID types.ID, seq int64) *database.SnapshotInfo {
	return &database.SnapshotInfo{
		ID:              types.NewID(),
		DocID:           docID,
		Seq:             seq,
		Kind:            types.OperationBake,
		Label:           fmt.Sprintf("bake %d", seq),
		AffectedPageIDs: []string{types.PageID(0)},
		DocumentBytes:   []byte(fmt.Sprintf("doc-%d", seq)),
		BaseBytes:       []byte("base"),
		Thumbnails:      map[string][]byte{types.PageID(0): []byte("png")},
		CreatedAt:       gotime.Now(),
	}
}

// RunDocInfoTest runs the create, find and update tests of documents.
func RunDocInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	t.Run("create and find docInfo test", func(t *testing.T) {
		created, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := db.FindDocInfoByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, t.Name(), found.Name)
		assert.Equal(t, "%PDF-current", string(found.CurrentBytes))
		assert.Len(t, found.Pages, 1)
		assert.Equal(t, "hello", found.Pages[0].Annotations[0].Content.Text)
	})

	t.Run("find missing docInfo test", func(t *testing.T) {
		_, err := db.FindDocInfoByID(ctx, types.NewID())
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
		assert.Equal(t, errors.ErrCodeNotFound, errors.StatusOf(err))
	})

	t.Run("create duplicated docInfo test", func(t *testing.T) {
		created, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		_, err = db.CreateDocInfo(ctx, created)
		assert.ErrorIs(t, err, database.ErrDocumentAlreadyExists)
	})

	t.Run("update docInfo test", func(t *testing.T) {
		created, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		created.CurrentBytes = []byte("%PDF-baked")
		created.Pages = nil
		created.CurrentSnapshotID = types.NewID()
		assert.NoError(t, db.UpdateDocInfo(ctx, created))

		found, err := db.FindDocInfoByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "%PDF-baked", string(found.CurrentBytes))
		assert.Empty(t, found.Pages)
		assert.Equal(t, created.CurrentSnapshotID, found.CurrentSnapshotID)
		assert.False(t, found.UpdatedAt.Before(found.CreatedAt))

		missing := newDocInfo(t.Name())
		missing.ID = types.NewID()
		assert.ErrorIs(t, db.UpdateDocInfo(ctx, missing), database.ErrDocumentNotFound)
	})

	t.Run("returned docInfo is a copy test", func(t *testing.T) {
		created, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		created.CurrentBytes[0] = 'X'
		found, err := db.FindDocInfoByID(ctx, created.ID)
		assert.NoError(t, err)
		assert.Equal(t, "%PDF-current", string(found.CurrentBytes))
	})
}

// RunListDocInfosTest runs the ListDocInfos test for the given db.
func RunListDocInfosTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	before, err := db.ListDocInfos(ctx)
	assert.NoError(t, err)

	var ids []types.ID
	for i := 0; i < 3; i++ {
		info := newDocInfo(fmt.Sprintf("%s-%d", t.Name(), i))
		info.CreatedAt = gotime.Now().Add(gotime.Duration(i) * gotime.Millisecond)
		created, err := db.CreateDocInfo(ctx, info)
		assert.NoError(t, err)
		ids = append(ids, created.ID)
	}

	infos, err := db.ListDocInfos(ctx)
	assert.NoError(t, err)
	assert.Len(t, infos, len(before)+3)

	tail := infos[len(infos)-3:]
	for i, info := range tail {
		assert.Equal(t, ids[i], info.ID)
	}
}

// RunSnapshotInfoTest runs the create, find and delete tests of snapshots.
func RunSnapshotInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	t.Run("find snapshots in sequence order test", func(t *testing.T) {
		docInfo, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		for _, seq := range []int64{3, 1, 200, 2} {
			assert.NoError(t, db.CreateSnapshotInfo(ctx, newSnapshotInfo(docInfo.ID, seq)))
		}

		infos, err := db.FindSnapshotInfosByDocID(ctx, docInfo.ID)
		assert.NoError(t, err)
		assert.Len(t, infos, 4)
		for i, seq := range []int64{1, 2, 3, 200} {
			assert.Equal(t, seq, infos[i].Seq)
		}
		assert.Equal(t, "doc-1", string(infos[0].DocumentBytes))
		assert.Len(t, infos[0].Thumbnails, 1)

		other, err := db.FindSnapshotInfosByDocID(ctx, types.NewID())
		assert.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("create duplicated snapshot test", func(t *testing.T) {
		docInfo, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		info := newSnapshotInfo(docInfo.ID, 1)
		assert.NoError(t, db.CreateSnapshotInfo(ctx, info))
		assert.ErrorIs(t, db.CreateSnapshotInfo(ctx, info), database.ErrSnapshotAlreadyExists)
	})

	t.Run("delete snapshots test", func(t *testing.T) {
		docInfo, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
		assert.NoError(t, err)

		var ids []types.ID
		for seq := int64(1); seq <= 4; seq++ {
			info := newSnapshotInfo(docInfo.ID, seq)
			assert.NoError(t, db.CreateSnapshotInfo(ctx, info))
			ids = append(ids, info.ID)
		}

		assert.NoError(t, db.DeleteSnapshotInfos(ctx, docInfo.ID, []types.ID{ids[0], ids[3], types.NewID()}))

		infos, err := db.FindSnapshotInfosByDocID(ctx, docInfo.ID)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)
		assert.Equal(t, ids[1], infos[0].ID)
		assert.Equal(t, ids[2], infos[1].ID)
	})
}

// RunStripSnapshotInfosTest runs the StripSnapshotInfos test for the given db.
func RunStripSnapshotInfosTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	docInfo, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
	assert.NoError(t, err)

	first := newSnapshotInfo(docInfo.ID, 1)
	second := newSnapshotInfo(docInfo.ID, 2)
	assert.NoError(t, db.CreateSnapshotInfo(ctx, first))
	assert.NoError(t, db.CreateSnapshotInfo(ctx, second))

	assert.NoError(t, db.StripSnapshotInfos(ctx, docInfo.ID, []types.ID{first.ID}))

	infos, err := db.FindSnapshotInfosByDocID(ctx, docInfo.ID)
	assert.NoError(t, err)
	assert.Len(t, infos, 2)

	assert.True(t, infos[0].Stripped)
	assert.Empty(t, infos[0].DocumentBytes)
	assert.Empty(t, infos[0].BaseBytes)
	assert.Len(t, infos[0].Thumbnails, 1)
	assert.Equal(t, first.Label, infos[0].Label)

	assert.False(t, infos[1].Stripped)
	assert.Equal(t, "doc-2", string(infos[1].DocumentBytes))
}

// RunRemoveDocInfoTest runs the RemoveDocInfo test for the given db.
func RunRemoveDocInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()

	docInfo, err := db.CreateDocInfo(ctx, newDocInfo(t.Name()))
	assert.NoError(t, err)
	assert.NoError(t, db.CreateSnapshotInfo(ctx, newSnapshotInfo(docInfo.ID, 1)))

	assert.NoError(t, db.RemoveDocInfo(ctx, docInfo.ID))

	_, err = db.FindDocInfoByID(ctx, docInfo.ID)
	assert.ErrorIs(t, err, database.ErrDocumentNotFound)

	infos, err := db.FindSnapshotInfosByDocID(ctx, docInfo.ID)
	assert.NoError(t, err)
	assert.Empty(t, infos)

	assert.ErrorIs(t, db.RemoveDocInfo(ctx, docInfo.ID), database.ErrDocumentNotFound)
}
