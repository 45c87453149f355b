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

// Package pubsub fans out history state changes to the subscribers of a
// document.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/server/logging"
)

// ErrTooManySubscribers is returned when the the subscription limit is exceeded.
var ErrTooManySubscribers = errors.ResourceExhausted("subscription limit exceeded").WithCode("ErrTooManySubscribers")

// PubSub is the memory implementation of PubSub, used for single server.
type PubSub struct {
	mu      sync.RWMutex
	subsMap map[types.ID]map[string]*Subscription
	bufSize int
}

// New creates an instance of PubSub.
func New(bufSize int) *PubSub {
	return &PubSub{
		subsMap: make(map[types.ID]map[string]*Subscription),
		bufSize: bufSize,
	}
}

// Subscribe subscribes to the history state changes of the given document.
// A limit of zero or less means no limit.
func (m *PubSub) Subscribe(
	ctx context.Context,
	docID types.ID,
	limit int,
) (*Subscription, error) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s) Start`, docID)
	}

	m.mu.Lock()
	subs, ok := m.subsMap[docID]
	if !ok {
		subs = make(map[string]*Subscription)
		m.subsMap[docID] = subs
	}

	if limit > 0 && len(subs) >= limit {
		m.mu.Unlock()
		return nil, fmt.Errorf(
			"%d subscribers allowed per document: %w",
			limit,
			ErrTooManySubscribers,
		)
	}

	sub := NewSubscription(docID, m.bufSize)
	subs[sub.ID()] = sub
	m.mu.Unlock()

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, docID, sub.ID())
	}

	return sub, nil
}

// Unsubscribe closes the subscription and removes it from the document.
func (m *PubSub) Unsubscribe(
	ctx context.Context,
	sub *Subscription,
) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) Start`, sub.DocID(), sub.ID())
	}

	sub.Close()

	m.mu.Lock()
	if subs, ok := m.subsMap[sub.DocID()]; ok {
		delete(subs, sub.ID())
		if len(subs) == 0 {
			delete(m.subsMap, sub.DocID())
		}
	}
	m.mu.Unlock()

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) End`, sub.DocID(), sub.ID())
	}
}

// Publish delivers the state to every subscriber of the document and returns
// the number of subscribers that received it. Slow subscribers lose their
// oldest pending events instead of blocking the publisher.
func (m *PubSub) Publish(docID types.ID, state types.HistoryState) int {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.subsMap[docID]))
	for _, sub := range m.subsMap[docID] {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if sub.Publish(state) {
			delivered++
			continue
		}

		logging.DefaultLogger().Warnf(
			"publish(%s,%s) dropped: subscriber is closed",
			docID,
			sub.ID(),
		)
	}

	return delivered
}

// Len returns the number of subscribers of the document.
func (m *PubSub) Len(docID types.ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.subsMap[docID])
}

// CloseDocument closes every subscription of the document. It is used when
// the document is removed.
func (m *PubSub) CloseDocument(docID types.ID) {
	m.mu.Lock()
	subs := m.subsMap[docID]
	delete(m.subsMap, docID)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
