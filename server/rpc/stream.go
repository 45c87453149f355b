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

package rpc

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quire-team/quire/server/documents"
	"github.com/quire-team/quire/server/logging"
)

const (
	// streamPingInterval is the interval of websocket pings.
	streamPingInterval = 30 * time.Second

	// streamWriteTimeout bounds a single write to a stream.
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Origins are checked by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamHistory upgrades the request to a websocket and writes the history
// state of the document on every change, starting with the current one. The
// stream ends when the client goes away, the document is removed or the
// server shuts down.
func (h *handlers) streamHistory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	state, err := documents.GetHistoryState(ctx, h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	sub, err := h.be.PubSub.Subscribe(ctx, id, h.be.Config.SubscriptionLimitPerDocument)
	if err != nil {
		abort(c, err)
		return
	}
	defer h.be.PubSub.Unsubscribe(ctx, sub)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered the request.
		_ = c.Error(err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	h.be.Metrics.AddHistoryStreamConnections(h.be.Config.Hostname)
	defer h.be.Metrics.RemoveHistoryStreamConnections(h.be.Config.Hostname)

	logger := logging.From(ctx)
	logger.Debugf("stream(%s,%s) opened", id, sub.ID())

	// Clients never send data; reading only detects that they went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debugf("stream(%s,%s): %v", id, sub.ID(), err)
				}
				return
			}
		}
	}()

	if err := writeJSON(conn, state); err != nil {
		logger.Debugf("stream(%s,%s): %v", id, sub.ID(), err)
		return
	}

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-h.serviceCtx.Done():
			closeStream(conn, websocket.CloseGoingAway, "server shutdown")
			return
		case state, ok := <-sub.Events():
			if !ok {
				closeStream(conn, websocket.CloseNormalClosure, "document removed")
				return
			}
			if err := writeJSON(conn, state); err != nil {
				logger.Debugf("stream(%s,%s): %v", id, sub.ID(), err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(streamWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func closeStream(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteTimeout))
}
