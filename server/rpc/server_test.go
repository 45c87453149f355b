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

package rpc_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/housekeeping"
	"github.com/quire-team/quire/server/profiling/prometheus"
	"github.com/quire-team/quire/server/rpc"
	"github.com/quire-team/quire/test/helper"
)

type testServer struct {
	be      *backend.Backend
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	be, err := backend.New(&backend.Config{
		MaxSnapshots:                 helper.MaxSnapshots,
		ThumbnailWidth:               helper.ThumbnailWidth,
		MaxUploadBytes:               1 << 20,
		PageInfoCacheSize:            10,
		PageInfoCacheTTL:             "10m",
		SubscriptionLimitPerDocument: 2,
		Hostname:                     "test",
	}, nil, &housekeeping.Config{
		Interval:       helper.HousekeepingInterval.String(),
		OptimizeWindow: helper.OptimizeWindow,
	}, metrics)
	require.NoError(t, err)

	srv, err := rpc.NewServer(&rpc.Config{
		Port:              helper.RPCPort,
		ReadHeaderTimeout: "5s",
		ShutdownTimeout:   "5s",
	}, be)
	require.NoError(t, err)

	t.Cleanup(func() {
		srv.Shutdown(false)
		assert.NoError(t, be.Shutdown())
	})
	return &testServer{be: be, handler: srv.Handler()}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, pages int) *types.DocumentSummary {
	rec := s.do(t, http.MethodPost, "/documents?name=test.pdf", helper.LetterPDF(t, pages))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary types.DocumentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	return &summary
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer(t *testing.T) {
	t.Run("health test", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[rpc.HealthResponse](t, rec).Status)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("document lifecycle test", func(t *testing.T) {
		s := newTestServer(t)
		summary := s.upload(t, 2)
		assert.Equal(t, "test.pdf", summary.Name)
		assert.Equal(t, 2, summary.TotalPages)
		assert.Equal(t, types.NewHistoryState(0, 1), summary.History)

		rec := s.do(t, http.MethodGet, "/documents", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]types.DocumentSummary](t, rec), 1)

		rec = s.do(t, http.MethodGet, "/documents/"+summary.ID.String()+"/content", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

		rec = s.do(t, http.MethodGet, "/documents/"+summary.ID.String()+"/pages", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"pageCount":2`)

		rec = s.do(t, http.MethodDelete, "/documents/"+summary.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, http.MethodGet, "/documents/"+summary.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "ErrDocumentNotFound", decode[rpc.ErrorResponse](t, rec).Code)
	})

	t.Run("invalid requests test", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodGet, "/documents/not-an-id", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ErrInvalidRequest", decode[rpc.ErrorResponse](t, rec).Code)

		rec = s.do(t, http.MethodPost, "/documents", []byte("not a pdf"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ErrCorruptDocument", decode[rpc.ErrorResponse](t, rec).Code)

		summary := s.upload(t, 1)
		path := "/documents/" + summary.ID.String() + "/operations"
		rec = s.do(t, http.MethodPost, path, map[string]any{"kind": "paint"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, path, map[string]any{"kind": "rotate", "degrees": 90, "pages": []string{"9"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ErrInvalidPageRange", decode[rpc.ErrorResponse](t, rec).Code)
	})

	t.Run("annotations and bake test", func(t *testing.T) {
		s := newTestServer(t)
		summary := s.upload(t, 1)
		base := "/documents/" + summary.ID.String()

		rec := s.do(t, http.MethodPut, base+"/pages/0", annotation.NewPageSet(0, 612, 792))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodPost, base+"/pages/0/annotations", annotation.Annotation{
			Kind:     annotation.KindRectangle,
			Position: annotation.Position{X: 10, Y: 10, Width: 100, Height: 40},
			Style:    annotation.Style{StrokeColor: "#0000ff", StrokeWidth: 1, Opacity: annotation.Opacity(1)},
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		added := decode[annotation.Annotation](t, rec)
		assert.NotEmpty(t, added.ID)

		rec = s.do(t, http.MethodPost, base+"/bake", nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		baked := decode[rpc.BakeResponse](t, rec)
		assert.Equal(t, 1, baked.Applied)
		assert.Empty(t, baked.Skipped)
		assert.Equal(t, 2, baked.Document.History.Length)

		rec = s.do(t, http.MethodDelete, base+"/pages/0/annotations/"+added.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = s.do(t, http.MethodDelete, base+"/pages/0/annotations/"+added.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid request message is translated test", func(t *testing.T) {
		s := newTestServer(t)
		summary := s.upload(t, 2)
		base := "/documents/" + summary.ID.String()

		rec := s.do(t, http.MethodPost, base+"/operations", map[string]any{"kind": "rotate", "degrees": 90, "pages": []string{"abc"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[rpc.ErrorResponse](t, rec)
		assert.Equal(t, "ErrInvalidRequest", resp.Code)
		assert.Contains(t, resp.Message, "Pages[0] must be a page selection such as 1-3 or even")
		assert.Equal(t, "Pages[0] must be a page selection such as 1-3 or even", resp.Metadata["Pages[0]"])

		rec = s.do(t, http.MethodPost, base+"/operations", map[string]any{"kind": "ocr"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[rpc.ErrorResponse](t, rec).Message, "Kind must be one of [rotate delete merge watermark compress]")

		rec = s.do(t, http.MethodPost, base+"/operations", map[string]any{"kind": "rotate", "degrees": 90, "pages": []string{"1-2"}})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("history test", func(t *testing.T) {
		s := newTestServer(t)
		summary := s.upload(t, 2)
		base := "/documents/" + summary.ID.String()

		rec := s.do(t, http.MethodPost, base+"/history/undo", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ErrHistoryUnavailable", decode[rpc.ErrorResponse](t, rec).Code)

		rec = s.do(t, http.MethodPost, base+"/operations", map[string]any{"kind": "rotate", "degrees": 90})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = s.do(t, http.MethodPost, base+"/operations", map[string]any{"kind": "compress"})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodPost, base+"/history/undo", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		moved := decode[rpc.HistoryResponse](t, rec)
		assert.Equal(t, types.OperationRotate, moved.Snapshot.Kind)
		assert.Equal(t, types.HistoryState{CanUndo: true, CanRedo: true, Index: 1, Length: 3}, moved.History)

		rec = s.do(t, http.MethodPost, base+"/history/jump", map[string]any{"index": 0})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, types.OperationUpload, decode[rpc.HistoryResponse](t, rec).Snapshot.Kind)

		rec = s.do(t, http.MethodPost, base+"/history/jump", map[string]any{"index": 9})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ErrIndexOutOfRange", decode[rpc.ErrorResponse](t, rec).Code)

		rec = s.do(t, http.MethodPost, base+"/history/redo", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, base+"/history", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[types.HistoryState](t, rec).Index)

		rec = s.do(t, http.MethodGet, base+"/history/snapshots", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		snapshots := decode[[]types.SnapshotSummary](t, rec)
		assert.Len(t, snapshots, 3)
		assert.True(t, snapshots[1].Current)
	})

	t.Run("split test", func(t *testing.T) {
		s := newTestServer(t)
		summary := s.upload(t, 3)

		rec := s.do(t, http.MethodPost, "/documents/"+summary.ID.String()+"/split", map[string]any{"span": 2})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		parts := decode[[]types.DocumentSummary](t, rec)
		assert.Len(t, parts, 2)
		assert.Equal(t, "test-part-1-2.pdf", parts[0].Name)

		rec = s.do(t, http.MethodPost, "/documents/"+summary.ID.String()+"/split", map[string]any{"span": 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history stream test", func(t *testing.T) {
		s := newTestServer(t)
		ts := httptest.NewServer(s.handler)
		defer ts.Close()
		summary := s.upload(t, 1)

		url := fmt.Sprintf("ws%s/documents/%s/history/stream", strings.TrimPrefix(ts.URL, "http"), summary.ID)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, conn.Close())
		}()

		var state types.HistoryState
		require.NoError(t, conn.ReadJSON(&state))
		assert.Equal(t, types.NewHistoryState(0, 1), state)

		rec := s.do(t, http.MethodPost, "/documents/"+summary.ID.String()+"/operations", map[string]any{"kind": "compress"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		require.NoError(t, conn.ReadJSON(&state))
		assert.Equal(t, types.NewHistoryState(1, 2), state)

		rec = s.do(t, http.MethodDelete, "/documents/"+summary.ID.String(), nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		// The removal publishes an empty history before the stream closes.
		require.NoError(t, conn.ReadJSON(&state))
		assert.Equal(t, types.NewHistoryState(-1, 0), state)
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	})
}
