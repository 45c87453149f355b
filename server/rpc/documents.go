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
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/internal/version"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/bake"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/documents"
)

// defaultDocumentName is used when an upload does not name the document.
const defaultDocumentName = "document.pdf"

// handlers serves the API of the documents.
type handlers struct {
	// serviceCtx is canceled when the server shuts down.
	serviceCtx context.Context
	be         *backend.Backend
}

func newHandlers(serviceCtx context.Context, be *backend.Backend) *handlers {
	return &handlers{
		serviceCtx: serviceCtx,
		be:         be,
	}
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// OperationRequest is the body of a structural operation on a document.
type OperationRequest struct {
	Kind types.OperationKind `json:"kind" validate:"required,oneof=rotate delete merge watermark compress"`

	// Pages is the page selection, e.g. "1-3" or "even". Empty means every
	// page.
	Pages []string `json:"pages" validate:"dive,page_selection"`

	// Degrees is the clockwise rotation of rotate.
	Degrees int `json:"degrees" validate:"required_if=Kind rotate"`

	// Documents are the documents appended by merge.
	Documents []types.ID `json:"documents" validate:"required_if=Kind merge,dive,required"`

	// Text, FontSize, Opacity, Rotation and OnTop configure watermark.
	Text     string  `json:"text" validate:"required_if=Kind watermark"`
	FontSize int     `json:"fontSize" validate:"gte=0"`
	Opacity  float64 `json:"opacity" validate:"gte=0,lte=1"`
	Rotation int     `json:"rotation"`
	OnTop    bool    `json:"onTop"`
}

// SplitRequest is the body of a split.
type SplitRequest struct {
	Span int `json:"span" validate:"required,gte=1"`
}

// BakeResponse is the body of a bake.
type BakeResponse struct {
	Document *types.DocumentSummary `json:"document"`
	Applied  int                    `json:"applied"`
	Skipped  []SkippedAnnotation    `json:"skipped"`
}

// SkippedAnnotation is an annotation left out of a bake.
type SkippedAnnotation struct {
	AnnotationID string `json:"annotationId"`
	PageIndex    int    `json:"pageIndex"`
	Reason       string `json:"reason"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
	})
}

func (h *handlers) createDocument(c *gin.Context) {
	name := c.DefaultQuery("name", defaultDocumentName)
	if err := types.ValidateVar(name, "required,max=255"); err != nil {
		abort(c, fmt.Errorf("name: %s: %w", err.Error(), ErrInvalidRequest))
		return
	}

	// One extra byte is read so an oversized upload is detected.
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.be.Config.MaxUploadBytes+1))
	if err != nil {
		abort(c, fmt.Errorf("read body: %s: %w", err.Error(), ErrInvalidRequest))
		return
	}

	docInfo, err := documents.CreateDocument(c.Request.Context(), h.be, name, data)
	if err != nil {
		abort(c, err)
		return
	}

	h.respondSummary(c, http.StatusCreated, docInfo)
}

func (h *handlers) listDocuments(c *gin.Context) {
	summaries, err := documents.ListDocumentSummaries(c.Request.Context(), h.be)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *handlers) getDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	summary, err := documents.GetDocumentSummary(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *handlers) removeDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := documents.RemoveDocument(c.Request.Context(), h.be, id); err != nil {
		abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlers) getContent(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	docInfo, err := documents.GetDocument(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", docInfo.Name))
	c.Data(http.StatusOK, "application/pdf", docInfo.CurrentBytes)
}

func (h *handlers) getPages(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	info, err := documents.GetPages(c.Request.Context(), h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *handlers) setPageAnnotations(c *gin.Context) {
	id, page, ok := paramPage(c)
	if !ok {
		return
	}

	var set annotation.PageSet
	if !bindJSON(c, &set) {
		return
	}
	set.PageIndex = page

	docInfo, err := documents.SetPageAnnotations(c.Request.Context(), h.be, id, set)
	if err != nil {
		abort(c, err)
		return
	}

	stored, _ := annotation.Lookup(docInfo.Pages, page)
	c.JSON(http.StatusOK, stored)
}

func (h *handlers) addAnnotation(c *gin.Context) {
	id, page, ok := paramPage(c)
	if !ok {
		return
	}

	var a annotation.Annotation
	if !bindJSON(c, &a) {
		return
	}

	added, err := documents.AddAnnotation(c.Request.Context(), h.be, id, page, a)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

func (h *handlers) removeAnnotation(c *gin.Context) {
	id, page, ok := paramPage(c)
	if !ok {
		return
	}

	if err := documents.RemoveAnnotation(c.Request.Context(), h.be, id, page, c.Param("annotation")); err != nil {
		abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlers) bake(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	_, report, err := documents.BakeAnnotations(ctx, h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	summary, err := documents.GetDocumentSummary(ctx, h.be, id)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, toBakeResponse(summary, report))
}

func (h *handlers) applyOperation(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req OperationRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var docInfo *database.DocInfo
	var err error
	switch req.Kind {
	case types.OperationRotate:
		docInfo, err = documents.Rotate(ctx, h.be, id, req.Degrees, req.Pages)
	case types.OperationDelete:
		docInfo, err = documents.DeletePages(ctx, h.be, id, req.Pages)
	case types.OperationMerge:
		docInfo, err = documents.Merge(ctx, h.be, id, req.Documents...)
	case types.OperationWatermark:
		docInfo, err = documents.Watermark(ctx, h.be, id, pdfops.WatermarkOptions{
			Text:     req.Text,
			FontSize: req.FontSize,
			Opacity:  req.Opacity,
			Rotation: req.Rotation,
			OnTop:    req.OnTop,
			Pages:    req.Pages,
		})
	case types.OperationCompress:
		docInfo, err = documents.Compress(ctx, h.be, id)
	}
	if err != nil {
		abort(c, err)
		return
	}

	h.respondSummary(c, http.StatusOK, docInfo)
}

func (h *handlers) split(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req SplitRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	parts, err := documents.Split(ctx, h.be, id, req.Span)
	if err != nil {
		abort(c, err)
		return
	}

	summaries := make([]*types.DocumentSummary, 0, len(parts))
	for _, part := range parts {
		state, err := documents.GetHistoryState(ctx, h.be, part.ID)
		if err != nil {
			abort(c, err)
			return
		}
		summaries = append(summaries, part.Summary(state))
	}

	c.JSON(http.StatusCreated, summaries)
}

func (h *handlers) respondSummary(c *gin.Context, status int, docInfo *database.DocInfo) {
	state, err := documents.GetHistoryState(c.Request.Context(), h.be, docInfo.ID)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(status, docInfo.Summary(state))
}

func toBakeResponse(summary *types.DocumentSummary, report *bake.Report) BakeResponse {
	skipped := make([]SkippedAnnotation, 0, len(report.Skipped))
	for _, s := range report.Skipped {
		skipped = append(skipped, SkippedAnnotation{
			AnnotationID: s.AnnotationID,
			PageIndex:    s.PageIndex,
			Reason:       s.Err.Error(),
		})
	}

	return BakeResponse{
		Document: summary,
		Applied:  report.Applied,
		Skipped:  skipped,
	}
}

// paramID returns the document ID of the path. The request is aborted when
// the ID is malformed.
func paramID(c *gin.Context) (types.ID, bool) {
	id := types.ID(c.Param("id"))
	if err := id.Validate(); err != nil {
		abort(c, fmt.Errorf("%s: %w", err.Error(), ErrInvalidRequest))
		return "", false
	}
	return id, true
}

// paramPage returns the document ID and the 0-based page index of the path.
func paramPage(c *gin.Context) (types.ID, int, bool) {
	id, ok := paramID(c)
	if !ok {
		return "", 0, false
	}

	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 0 {
		abort(c, fmt.Errorf("page %q: %w", c.Param("page"), ErrInvalidRequest))
		return "", 0, false
	}
	return id, page, true
}

// bindJSON decodes the body into obj and validates its struct tags.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		abort(c, fmt.Errorf("decode body: %s: %w", err.Error(), ErrInvalidRequest))
		return false
	}
	if err := types.ValidateStruct(obj); err != nil {
		var fields map[string]string
		var structErr *types.StructError
		if errors.As(err, &structErr) {
			fields = structErr.Fields()
		}
		abort(c, errors.WithMetadata(fmt.Errorf("%s: %w", err.Error(), ErrInvalidRequest), fields))
		return false
	}
	return true
}
