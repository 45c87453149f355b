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

package housekeeping_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/history"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/backend/database/memory"
	"github.com/quire-team/quire/server/backend/housekeeping"
	"github.com/quire-team/quire/server/backend/sync"
)

func TestHousekeeping(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, count int) (*housekeeping.Housekeeping, database.Database, *history.Store, types.ID) {
		db, err := memory.New()
		assert.NoError(t, err)

		docInfo, err := db.CreateDocInfo(ctx, &database.DocInfo{Name: t.Name()})
		assert.NoError(t, err)

		store := history.NewStore(50, nil)
		for i := 0; i < count; i++ {
			snap := &history.Snapshot{
				ID:            types.NewID(),
				Kind:          types.OperationBake,
				Label:         fmt.Sprintf("bake %d", i),
				Timestamp:     time.Now(),
				DocumentBytes: []byte("doc"),
				BaseBytes:     []byte("base"),
			}
			store.Capture(docInfo.ID, snap)
			assert.NoError(t, db.CreateSnapshotInfo(ctx, database.NewSnapshotInfo(docInfo.ID, int64(i+1), snap)))
		}

		h, err := housekeeping.New(&housekeeping.Config{
			Interval:       "1h",
			OptimizeWindow: 2,
		}, db, store, sync.New(), nil)
		assert.NoError(t, err)

		return h, db, store, docInfo.ID
	}

	t.Run("optimize strips memory and database test", func(t *testing.T) {
		h, db, store, docID := setup(t, 6)

		optimized, err := h.Optimize(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 3, optimized)

		snaps := store.Snapshots(docID)
		for i, snap := range snaps {
			assert.Equal(t, i < 3, snap.Stripped, "snapshot %d", i)
		}

		infos, err := db.FindSnapshotInfosByDocID(ctx, docID)
		assert.NoError(t, err)
		for i, info := range infos {
			assert.Equal(t, i < 3, info.Stripped, "snapshot info %d", i)
		}

		optimized, err = h.Optimize(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, optimized)
	})

	t.Run("start and stop test", func(t *testing.T) {
		h, _, _, _ := setup(t, 1)

		assert.NoError(t, h.Start())
		assert.NoError(t, h.Start())
		assert.NoError(t, h.Stop())
		assert.NoError(t, h.Stop())
	})
}
