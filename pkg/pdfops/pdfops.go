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

// Package pdfops wraps the document mutation operations: rotate, delete,
// split, merge, watermark and compress. Every operation takes its own copy
// of the input bytes and returns newly allocated bytes, so callers may keep
// using their buffers afterwards.
package pdfops

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/quire-team/quire/pkg/errors"
)

var (
	// ErrUnsupportedOperation is returned when an operation is called with
	// parameters it cannot honor.
	ErrUnsupportedOperation = errors.InvalidArgument("unsupported operation").WithCode("ErrUnsupportedOperation")

	// ErrInvalidPageRange is returned when a page selection is malformed or
	// refers to pages the document does not have.
	ErrInvalidPageRange = errors.InvalidArgument("invalid page range").WithCode("ErrInvalidPageRange")

	// ErrCorruptDocument is returned when the input cannot be parsed as a
	// PDF document.
	ErrCorruptDocument = errors.InvalidArgument("corrupt document").WithCode("ErrCorruptDocument")

	// ErrOperationFailed is returned when a well-formed document could not
	// be processed.
	ErrOperationFailed = errors.Internal("document operation failed").WithCode("ErrOperationFailed")
)

var disableConfigDir sync.Once

// newConfig returns a fresh pdfcpu configuration. pdfcpu never touches the
// user's configuration directory.
func newConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Result is the outcome of a mutation operation.
type Result struct {
	// Bytes is the new document.
	Bytes []byte

	// PageCount is the number of pages of the new document.
	PageCount int

	// AffectedPages are the 1-based page numbers the operation touched in
	// the input document.
	AffectedPages []int

	// Metadata describes the operation for display and logging.
	Metadata map[string]string
}

// reader returns a reader over a private copy of doc.
func reader(doc []byte) io.ReadSeeker {
	return bytes.NewReader(bytes.Clone(doc))
}

// Inspect returns the number of pages and the size of every page.
func Inspect(doc []byte) (*Info, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}

	dims, err := api.PageDims(reader(doc), newConfig())
	if err != nil {
		return nil, fmt.Errorf("page dimensions: %s: %w", err.Error(), ErrCorruptDocument)
	}

	info := &Info{PageCount: count}
	for _, d := range dims {
		info.Pages = append(info.Pages, PageSize{Width: d.Width, Height: d.Height})
	}
	return info, nil
}

// Info describes the pages of a document.
type Info struct {
	PageCount int        `json:"pageCount"`
	Pages     []PageSize `json:"pages"`
}

// PageSize is the size of one page in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageCount returns the number of pages of doc.
func PageCount(doc []byte) (int, error) {
	if len(doc) == 0 {
		return 0, fmt.Errorf("empty input: %w", ErrCorruptDocument)
	}

	count, err := api.PageCount(reader(doc), newConfig())
	if err != nil {
		return 0, fmt.Errorf("read document: %s: %w", err.Error(), ErrCorruptDocument)
	}
	return count, nil
}

func newResult(out []byte, affected []int, metadata map[string]string) (*Result, error) {
	count, err := PageCount(out)
	if err != nil {
		return nil, fmt.Errorf("read result: %s: %w", err.Error(), ErrOperationFailed)
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["pageCount"] = strconv.Itoa(count)

	return &Result{
		Bytes:         out,
		PageCount:     count,
		AffectedPages: affected,
		Metadata:      metadata,
	}, nil
}

func failed(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", op, err.Error(), ErrOperationFailed)
}
