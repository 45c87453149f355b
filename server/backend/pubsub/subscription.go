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

package pubsub

import (
	"sync"

	"github.com/rs/xid"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/server/logging"
)

// DefaultBufferSize is the number of events a subscription holds before the
// oldest events are dropped.
const DefaultBufferSize = 16

// Subscription represents a subscription of a subscriber to the history
// state changes of one document.
type Subscription struct {
	id     string
	docID  types.ID
	mu     sync.Mutex
	closed bool
	events chan types.HistoryState
}

// NewSubscription creates a new instance of Subscription with the given buffer size.
func NewSubscription(docID types.ID, bufSize int) *Subscription {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return &Subscription{
		id:     xid.New().String(),
		docID:  docID,
		events: make(chan types.HistoryState, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// DocID returns the ID of the subscribed document.
func (s *Subscription) DocID() types.ID {
	return s.docID
}

// Events returns the event channel of this subscription.
func (s *Subscription) Events() <-chan types.HistoryState {
	return s.events
}

// Close closes all resources of this Subscription.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Publish delivers the state to the subscriber without blocking. When the
// buffer is full the oldest pending state is dropped, so the latest state is
// always delivered. It returns false when the subscription is closed.
func (s *Subscription) Publish(state types.HistoryState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.events <- state:
			return true
		default:
		}

		select {
		case dropped := <-s.events:
			logging.DefaultLogger().Warnf(
				"publish(%s,%s) dropped state %d/%d: subscriber is slow",
				s.docID,
				s.id,
				dropped.Index,
				dropped.Length,
			)
		default:
		}
	}
}
