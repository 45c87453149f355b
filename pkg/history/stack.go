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

// Package history implements bounded, linear undo/redo stacks of operation
// snapshots and the store that owns one stack per document.
package history

import (
	"fmt"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/errors"
)

const (
	// DefaultMaxSnapshots is the stack capacity used when none is given.
	DefaultMaxSnapshots = 50

	// DefaultOptimizeWindow is the distance from the cursor beyond which the
	// optimize pass strips snapshot payloads.
	DefaultOptimizeWindow = 10
)

var (
	// ErrHistoryUnavailable is returned when there is nothing to undo or redo.
	ErrHistoryUnavailable = errors.FailedPrecond("history unavailable").WithCode("ErrHistoryUnavailable")

	// ErrIndexOutOfRange is returned when jumping outside of the stack.
	ErrIndexOutOfRange = errors.InvalidArgument("history index out of range").WithCode("ErrIndexOutOfRange")

	// ErrSnapshotNotRestorable is returned when the target snapshot has been
	// stripped by the optimize pass.
	ErrSnapshotNotRestorable = errors.FailedPrecond("snapshot is not restorable").WithCode("ErrSnapshotNotRestorable")
)

// Stack is a linear history of snapshots with a cursor. The snapshot at the
// cursor describes the current state of the document. Stack is not safe for
// concurrent use; Store serializes access.
type Stack struct {
	snapshots    []*Snapshot
	cursor       int
	maxSnapshots int
}

// NewStack creates an empty stack holding at most maxSnapshots entries.
func NewStack(maxSnapshots int) *Stack {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}

	return &Stack{
		cursor:       -1,
		maxSnapshots: maxSnapshots,
	}
}

// RestoreStack rebuilds a stack from persisted snapshots, oldest first, with
// the cursor at the given index. Excess oldest entries beyond maxSnapshots are
// dropped and the cursor shifted accordingly.
func RestoreStack(maxSnapshots int, snapshots []*Snapshot, cursor int) (*Stack, error) {
	s := NewStack(maxSnapshots)
	if len(snapshots) == 0 {
		return s, nil
	}
	if cursor < 0 || cursor >= len(snapshots) {
		return nil, fmt.Errorf("restore cursor %d of %d: %w", cursor, len(snapshots), ErrIndexOutOfRange)
	}

	for _, snap := range snapshots {
		s.snapshots = append(s.snapshots, snap.Clone())
	}
	s.cursor = cursor
	for len(s.snapshots) > s.maxSnapshots && s.cursor > 0 {
		s.snapshots = s.snapshots[1:]
		s.cursor--
	}
	return s, nil
}

// Capture appends a snapshot. Entries after the cursor are discarded first;
// when the stack then exceeds its capacity the oldest entry is evicted and
// the cursor shifted down. It returns every discarded snapshot, truncated
// ones first. Discarded entries are gone for good.
func (s *Stack) Capture(snap *Snapshot) []*Snapshot {
	var dropped []*Snapshot

	if s.cursor < len(s.snapshots)-1 {
		dropped = append(dropped, s.snapshots[s.cursor+1:]...)
		clear(s.snapshots[s.cursor+1:])
		s.snapshots = s.snapshots[:s.cursor+1]
	}

	s.snapshots = append(s.snapshots, snap.Clone())
	s.cursor = len(s.snapshots) - 1

	for len(s.snapshots) > s.maxSnapshots {
		dropped = append(dropped, s.snapshots[0])
		s.snapshots[0] = nil
		s.snapshots = s.snapshots[1:]
		s.cursor--
	}

	return dropped
}

// Undo moves the cursor one entry back and returns the snapshot now at the
// cursor. It returns false when the cursor is already at the first entry.
func (s *Stack) Undo() (*Snapshot, bool) {
	if s.cursor <= 0 {
		return nil, false
	}

	s.cursor--
	return s.snapshots[s.cursor].Clone(), true
}

// Redo moves the cursor one entry forward and returns the snapshot now at the
// cursor. It returns false when the cursor is already at the last entry.
func (s *Stack) Redo() (*Snapshot, bool) {
	if s.cursor >= len(s.snapshots)-1 {
		return nil, false
	}

	s.cursor++
	return s.snapshots[s.cursor].Clone(), true
}

// JumpTo moves the cursor to the given index.
func (s *Stack) JumpTo(index int) (*Snapshot, error) {
	if index < 0 || index >= len(s.snapshots) {
		return nil, fmt.Errorf("jump to %d of %d: %w", index, len(s.snapshots), ErrIndexOutOfRange)
	}

	s.cursor = index
	return s.snapshots[index].Clone(), nil
}

// Peek returns the snapshot at the given index without moving the cursor.
func (s *Stack) Peek(index int) (*Snapshot, bool) {
	if index < 0 || index >= len(s.snapshots) {
		return nil, false
	}
	return s.snapshots[index].Clone(), true
}

// Current returns the snapshot at the cursor.
func (s *Stack) Current() (*Snapshot, bool) {
	return s.Peek(s.cursor)
}

// Optimize strips the payloads of snapshots more than window entries away
// from the cursor and returns the IDs stripped by this call.
func (s *Stack) Optimize(window int) []types.ID {
	if window < 0 {
		window = DefaultOptimizeWindow
	}

	var stripped []types.ID
	for i, snap := range s.snapshots {
		distance := i - s.cursor
		if distance < 0 {
			distance = -distance
		}
		if distance <= window || snap.Stripped {
			continue
		}
		snap.Strip()
		stripped = append(stripped, snap.ID)
	}
	return stripped
}

// State returns the cursor state of the stack.
func (s *Stack) State() types.HistoryState {
	return types.NewHistoryState(s.cursor, len(s.snapshots))
}

// Len returns the number of snapshots.
func (s *Stack) Len() int {
	return len(s.snapshots)
}

// Snapshots returns copies of all snapshots, oldest first.
func (s *Stack) Snapshots() []*Snapshot {
	result := make([]*Snapshot, len(s.snapshots))
	for i, snap := range s.snapshots {
		result[i] = snap.Clone()
	}
	return result
}
