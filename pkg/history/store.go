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
	"sync"

	"github.com/quire-team/quire/api/types"
)

// Notifier is called after the history of a document changes. It runs
// synchronously on the goroutine that changed the history, after the store
// lock is released.
type Notifier func(docID types.ID, state types.HistoryState)

// Store owns one Stack per document. A single Store is created per server
// and passed to whatever needs it.
type Store struct {
	mu           sync.RWMutex
	stacks       map[types.ID]*Stack
	maxSnapshots int
	notify       Notifier
}

// NewStore creates a store whose stacks hold at most maxSnapshots entries.
// notify may be nil.
func NewStore(maxSnapshots int, notify Notifier) *Store {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}

	return &Store{
		stacks:       make(map[types.ID]*Stack),
		maxSnapshots: maxSnapshots,
		notify:       notify,
	}
}

// MaxSnapshots returns the capacity of each stack.
func (s *Store) MaxSnapshots() int {
	return s.maxSnapshots
}

// Capture pushes a snapshot onto the document's stack, creating the stack if
// needed. It returns the snapshots discarded by truncation or eviction.
func (s *Store) Capture(docID types.ID, snap *Snapshot) ([]*Snapshot, types.HistoryState) {
	s.mu.Lock()
	stack, ok := s.stacks[docID]
	if !ok {
		stack = NewStack(s.maxSnapshots)
		s.stacks[docID] = stack
	}
	dropped := stack.Capture(snap)
	state := stack.State()
	s.mu.Unlock()

	s.changed(docID, state)
	return dropped, state
}

// Undo moves the document's cursor back. It returns false when there is
// nothing to undo.
func (s *Store) Undo(docID types.ID) (*Snapshot, bool) {
	return s.move(docID, (*Stack).Undo)
}

// Redo moves the document's cursor forward. It returns false when there is
// nothing to redo.
func (s *Store) Redo(docID types.ID) (*Snapshot, bool) {
	return s.move(docID, (*Stack).Redo)
}

func (s *Store) move(docID types.ID, fn func(*Stack) (*Snapshot, bool)) (*Snapshot, bool) {
	s.mu.Lock()
	stack, ok := s.stacks[docID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	snap, ok := fn(stack)
	state := stack.State()
	s.mu.Unlock()

	if ok {
		s.changed(docID, state)
	}
	return snap, ok
}

// JumpTo moves the document's cursor to the given index.
func (s *Store) JumpTo(docID types.ID, index int) (*Snapshot, error) {
	s.mu.Lock()
	stack, ok := s.stacks[docID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrIndexOutOfRange
	}
	snap, err := stack.JumpTo(index)
	state := stack.State()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.changed(docID, state)
	return snap, nil
}

// Peek returns the snapshot at index of the document's stack.
func (s *Store) Peek(docID types.ID, index int) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stack, ok := s.stacks[docID]
	if !ok {
		return nil, false
	}
	return stack.Peek(index)
}

// State returns the history state of the document. Unknown documents report
// an empty history.
func (s *Store) State(docID types.ID) types.HistoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stack, ok := s.stacks[docID]
	if !ok {
		return types.NewHistoryState(-1, 0)
	}
	return stack.State()
}

// Snapshots returns copies of the document's snapshots, oldest first.
func (s *Store) Snapshots(docID types.ID) []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stack, ok := s.stacks[docID]
	if !ok {
		return nil
	}
	return stack.Snapshots()
}

// Optimize runs the optimize pass on the document's stack.
func (s *Store) Optimize(docID types.ID, window int) []types.ID {
	s.mu.Lock()
	stack, ok := s.stacks[docID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	stripped := stack.Optimize(window)
	state := stack.State()
	s.mu.Unlock()

	if len(stripped) > 0 {
		s.changed(docID, state)
	}
	return stripped
}

// Restore replaces the document's stack with persisted snapshots.
func (s *Store) Restore(docID types.ID, snapshots []*Snapshot, cursor int) error {
	stack, err := RestoreStack(s.maxSnapshots, snapshots, cursor)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stacks[docID] = stack
	state := stack.State()
	s.mu.Unlock()

	s.changed(docID, state)
	return nil
}

// Has returns whether the store holds a stack for the document.
func (s *Store) Has(docID types.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.stacks[docID]
	return ok
}

// Remove drops the document's stack.
func (s *Store) Remove(docID types.ID) {
	s.mu.Lock()
	_, ok := s.stacks[docID]
	delete(s.stacks, docID)
	s.mu.Unlock()

	if ok {
		s.changed(docID, types.NewHistoryState(-1, 0))
	}
}

// DocIDs returns the IDs of documents with a stack.
func (s *Store) DocIDs() []types.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]types.ID, 0, len(s.stacks))
	for id := range s.stacks {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the total number of snapshots across all stacks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, stack := range s.stacks {
		n += stack.Len()
	}
	return n
}

func (s *Store) changed(docID types.ID, state types.HistoryState) {
	if s.notify != nil {
		s.notify(docID, state)
	}
}
