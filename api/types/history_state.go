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

// HistoryState is the undo/redo availability of a document's history.
type HistoryState struct {
	// CanUndo is true when the cursor is not at the first snapshot.
	CanUndo bool `json:"canUndo"`

	// CanRedo is true when the cursor is not at the last snapshot.
	CanRedo bool `json:"canRedo"`

	// Index is the position of the cursor in the stack.
	Index int `json:"index"`

	// Length is the number of snapshots in the stack.
	Length int `json:"length"`
}

// NewHistoryState returns the state for the given cursor and stack length.
// An empty stack reports index -1.
func NewHistoryState(index, length int) HistoryState {
	if length == 0 {
		return HistoryState{Index: -1}
	}

	return HistoryState{
		CanUndo: index > 0,
		CanRedo: index < length-1,
		Index:   index,
		Length:  length,
	}
}
