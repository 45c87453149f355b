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

package history_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/history"
)

func snapshot(n int) *history.Snapshot {
	return &history.Snapshot{
		ID:            types.ID(fmt.Sprintf("s%d", n)),
		Kind:          types.OperationBake,
		Label:         fmt.Sprintf("op %d", n),
		DocumentBytes: []byte(fmt.Sprintf("doc-%d", n)),
		BaseBytes:     []byte("base"),
		Thumbnails:    map[string][]byte{"page-1": {byte(n)}},
	}
}

func ids(snaps []*history.Snapshot) []types.ID {
	var result []types.ID
	for _, s := range snaps {
		result = append(result, s.ID)
	}
	return result
}

func TestStack(t *testing.T) {
	t.Run("empty stack test", func(t *testing.T) {
		s := history.NewStack(10)
		assert.Equal(t, types.HistoryState{Index: -1}, s.State())

		_, ok := s.Undo()
		assert.False(t, ok)
		_, ok = s.Redo()
		assert.False(t, ok)
		_, ok = s.Current()
		assert.False(t, ok)
	})

	t.Run("truncation test", func(t *testing.T) {
		s := history.NewStack(10)
		for i := 0; i < 5; i++ {
			s.Capture(snapshot(i))
		}
		assert.Equal(t, 4, s.State().Index)

		_, ok := s.Undo()
		assert.True(t, ok)
		_, ok = s.Undo()
		assert.True(t, ok)
		assert.Equal(t, 2, s.State().Index)
		assert.True(t, s.State().CanRedo)

		dropped := s.Capture(snapshot(5))
		assert.Equal(t, []types.ID{"s3", "s4"}, ids(dropped))

		state := s.State()
		assert.Equal(t, 3, state.Index)
		assert.Equal(t, 4, state.Length)
		assert.False(t, state.CanRedo)
		assert.True(t, state.CanUndo)
		assert.Equal(t, []types.ID{"s0", "s1", "s2", "s5"}, ids(s.Snapshots()))
	})

	t.Run("truncation from third entry test", func(t *testing.T) {
		s := history.NewStack(10)
		for i := 0; i < 3; i++ {
			s.Capture(snapshot(i))
		}
		s.Undo()
		s.Undo()

		s.Capture(snapshot(3))
		assert.Equal(t, 2, s.Len())
		assert.False(t, s.State().CanRedo)
	})

	t.Run("eviction test", func(t *testing.T) {
		s := history.NewStack(3)
		var dropped []*history.Snapshot
		for i := 0; i < 5; i++ {
			dropped = append(dropped, s.Capture(snapshot(i))...)
		}

		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 2, s.State().Index)
		assert.Equal(t, []types.ID{"s0", "s1"}, ids(dropped))
		assert.Equal(t, []types.ID{"s2", "s3", "s4"}, ids(s.Snapshots()))

		current, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, types.ID("s4"), current.ID)
	})

	t.Run("undo redo inverse test", func(t *testing.T) {
		s := history.NewStack(10)
		s.Capture(snapshot(0))
		s.Capture(snapshot(1))

		undone, ok := s.Undo()
		require.True(t, ok)
		assert.Equal(t, []byte("doc-0"), undone.DocumentBytes)
		assert.False(t, s.State().CanUndo)

		redone, ok := s.Redo()
		require.True(t, ok)
		assert.Equal(t, []byte("doc-1"), redone.DocumentBytes)

		_, ok = s.Redo()
		assert.False(t, ok)
		assert.Equal(t, 1, s.State().Index)
	})

	t.Run("jump to test", func(t *testing.T) {
		s := history.NewStack(10)
		for i := 0; i < 4; i++ {
			s.Capture(snapshot(i))
		}

		snap, err := s.JumpTo(1)
		require.NoError(t, err)
		assert.Equal(t, types.ID("s1"), snap.ID)
		assert.Equal(t, 1, s.State().Index)

		_, err = s.JumpTo(4)
		assert.ErrorIs(t, err, history.ErrIndexOutOfRange)
		_, err = s.JumpTo(-1)
		assert.ErrorIs(t, err, history.ErrIndexOutOfRange)
		assert.Equal(t, 1, s.State().Index)
	})

	t.Run("optimize test", func(t *testing.T) {
		s := history.NewStack(100)
		for i := 0; i < 30; i++ {
			s.Capture(snapshot(i))
		}
		_, err := s.JumpTo(15)
		require.NoError(t, err)

		stripped := s.Optimize(10)
		assert.Len(t, stripped, 30-21)
		assert.Empty(t, s.Optimize(10))

		snaps := s.Snapshots()
		for i, snap := range snaps {
			far := i < 5 || i > 25
			assert.Equal(t, far, snap.Stripped, "snapshot %d", i)
			assert.Equal(t, !far, snap.Restorable())
			if far {
				assert.Nil(t, snap.DocumentBytes)
				assert.Nil(t, snap.BaseBytes)
			}
			assert.NotEmpty(t, snap.Thumbnails)
			assert.Equal(t, fmt.Sprintf("op %d", i), snap.Label)
		}
	})

	t.Run("clone on read test", func(t *testing.T) {
		s := history.NewStack(10)
		in := snapshot(0)
		s.Capture(in)
		in.DocumentBytes[0] = 'X'

		current, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, []byte("doc-0"), current.DocumentBytes)

		current.DocumentBytes[0] = 'Y'
		current.Thumbnails["page-1"][0] = 42
		again, _ := s.Current()
		assert.Equal(t, []byte("doc-0"), again.DocumentBytes)
		assert.Equal(t, byte(0), again.Thumbnails["page-1"][0])
	})

	t.Run("restore test", func(t *testing.T) {
		var snaps []*history.Snapshot
		for i := 0; i < 5; i++ {
			snaps = append(snaps, snapshot(i))
		}

		s, err := history.RestoreStack(3, snaps, 4)
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 2, s.State().Index)

		_, err = history.RestoreStack(3, snaps, 5)
		assert.ErrorIs(t, err, history.ErrIndexOutOfRange)
	})
}

func TestStore(t *testing.T) {
	docA := types.ID("doc-a")
	docB := types.ID("doc-b")

	t.Run("per document stacks test", func(t *testing.T) {
		store := history.NewStore(3, nil)
		store.Capture(docA, snapshot(0))
		store.Capture(docA, snapshot(1))
		store.Capture(docB, snapshot(2))

		assert.Equal(t, 1, store.State(docA).Index)
		assert.Equal(t, 0, store.State(docB).Index)
		assert.Equal(t, -1, store.State("unknown").Index)
		assert.Equal(t, 3, store.Len())
		assert.ElementsMatch(t, []types.ID{docA, docB}, store.DocIDs())

		_, ok := store.Undo(docB)
		assert.False(t, ok)
		_, ok = store.Undo("unknown")
		assert.False(t, ok)

		snap, ok := store.Undo(docA)
		require.True(t, ok)
		assert.Equal(t, types.ID("s0"), snap.ID)

		store.Remove(docA)
		assert.False(t, store.Has(docA))
		assert.True(t, store.Has(docB))
	})

	t.Run("notification test", func(t *testing.T) {
		var events []types.HistoryState
		store := history.NewStore(10, func(docID types.ID, state types.HistoryState) {
			assert.Equal(t, docA, docID)
			events = append(events, state)
		})

		store.Capture(docA, snapshot(0))
		store.Capture(docA, snapshot(1))
		store.Undo(docA)
		store.Undo(docA)
		store.Redo(docA)

		assert.Equal(t, []types.HistoryState{
			{CanUndo: false, CanRedo: false, Index: 0, Length: 1},
			{CanUndo: true, CanRedo: false, Index: 1, Length: 2},
			{CanUndo: false, CanRedo: true, Index: 0, Length: 2},
			{CanUndo: true, CanRedo: false, Index: 1, Length: 2},
		}, events)
	})

	t.Run("notifier may read the store test", func(t *testing.T) {
		var store *history.Store
		var seen types.HistoryState
		store = history.NewStore(10, func(docID types.ID, _ types.HistoryState) {
			seen = store.State(docID)
		})

		store.Capture(docA, snapshot(0))
		assert.Equal(t, 0, seen.Index)
	})

	t.Run("optimize and restore test", func(t *testing.T) {
		store := history.NewStore(100, nil)
		for i := 0; i < 15; i++ {
			store.Capture(docA, snapshot(i))
		}
		store.Capture(docB, snapshot(100))

		assert.Equal(t, []types.ID{"s0", "s1", "s2", "s3"}, store.Optimize(docA, history.DefaultOptimizeWindow))
		assert.Empty(t, store.Optimize(docB, history.DefaultOptimizeWindow))
		assert.Empty(t, store.Optimize("unknown", history.DefaultOptimizeWindow))

		peeked, ok := store.Peek(docA, 0)
		require.True(t, ok)
		assert.False(t, peeked.Restorable())

		require.NoError(t, store.Restore(docB, []*history.Snapshot{snapshot(7), snapshot(8)}, 0))
		assert.Equal(t, types.HistoryState{CanRedo: true, Index: 0, Length: 2}, store.State(docB))

		_, err := store.JumpTo("unknown", 0)
		assert.ErrorIs(t, err, history.ErrIndexOutOfRange)
	})
}
