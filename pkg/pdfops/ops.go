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

package pdfops

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Rotate rotates the selected pages clockwise by rotation degrees. rotation
// must be a multiple of 90.
func Rotate(doc []byte, rotation int, selection []string) (*Result, error) {
	if rotation == 0 || rotation%90 != 0 {
		return nil, fmt.Errorf("rotate by %d degrees: %w", rotation, ErrUnsupportedOperation)
	}

	pages, err := selectIn(doc, selection)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Rotate(reader(doc), &out, rotation, toSelection(pages), newConfig()); err != nil {
		return nil, failed("rotate", err)
	}

	return newResult(out.Bytes(), pages, map[string]string{
		"rotation": strconv.Itoa(rotation),
		"pages":    joinPages(pages),
	})
}

// DeletePages removes the selected pages. At least one page must remain.
func DeletePages(doc []byte, selection []string) (*Result, error) {
	if len(selection) == 0 {
		return nil, fmt.Errorf("delete without selection: %w", ErrInvalidPageRange)
	}

	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	pages, err := SelectPages(count, selection)
	if err != nil {
		return nil, err
	}
	if len(pages) == count {
		return nil, fmt.Errorf("delete all %d pages: %w", count, ErrInvalidPageRange)
	}

	var out bytes.Buffer
	if err := api.RemovePages(reader(doc), &out, toSelection(pages), newConfig()); err != nil {
		return nil, failed("delete pages", err)
	}

	return newResult(out.Bytes(), pages, map[string]string{
		"pages": joinPages(pages),
	})
}

// Part is one document produced by Split.
type Part struct {
	// From and Thru are the 1-based pages of the source the part holds.
	From  int
	Thru  int
	Bytes []byte
}

// Split cuts the document into parts of span pages each. The last part may
// be shorter.
func Split(doc []byte, span int) ([]*Part, error) {
	if span < 1 {
		return nil, fmt.Errorf("split span %d: %w", span, ErrUnsupportedOperation)
	}
	if _, err := PageCount(doc); err != nil {
		return nil, err
	}

	spans, err := api.SplitRaw(reader(doc), span, newConfig())
	if err != nil {
		return nil, failed("split", err)
	}

	parts := make([]*Part, 0, len(spans))
	for _, s := range spans {
		data, err := io.ReadAll(s.Reader)
		if err != nil {
			return nil, failed("split", err)
		}
		parts = append(parts, &Part{From: s.From, Thru: s.Thru, Bytes: data})
	}
	return parts, nil
}

// Merge concatenates docs in order.
func Merge(docs ...[]byte) (*Result, error) {
	if len(docs) < 2 {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), ErrUnsupportedOperation)
	}

	readers := make([]io.ReadSeeker, len(docs))
	total := 0
	for i, doc := range docs {
		count, err := PageCount(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		total += count
		readers[i] = reader(doc)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConfig()); err != nil {
		return nil, failed("merge", err)
	}

	affected := make([]int, total)
	for i := range affected {
		affected[i] = i + 1
	}
	return newResult(out.Bytes(), affected, map[string]string{
		"documents": strconv.Itoa(len(docs)),
	})
}

// WatermarkOptions configures a text watermark.
type WatermarkOptions struct {
	Text     string
	FontSize int
	Opacity  float64
	Rotation int
	OnTop    bool
	Pages    []string
}

func (o WatermarkOptions) description() string {
	fontSize := o.FontSize
	if fontSize <= 0 {
		fontSize = 48
	}
	opacity := o.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 0.3
	}

	return fmt.Sprintf(
		"fontname:Helvetica, points:%d, opacity:%.2f, rotation:%d, scalefactor:1 abs",
		fontSize, opacity, o.Rotation,
	)
}

// Watermark stamps a text watermark on the selected pages.
func Watermark(doc []byte, opts WatermarkOptions) (*Result, error) {
	if opts.Text == "" {
		return nil, fmt.Errorf("watermark without text: %w", ErrUnsupportedOperation)
	}

	pages, err := selectIn(doc, opts.Pages)
	if err != nil {
		return nil, err
	}

	wm, err := api.TextWatermark(opts.Text, opts.description(), opts.OnTop, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("watermark: %s: %w", err.Error(), ErrUnsupportedOperation)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(reader(doc), &out, toSelection(pages), wm, newConfig()); err != nil {
		return nil, failed("watermark", err)
	}

	return newResult(out.Bytes(), pages, map[string]string{
		"text":  opts.Text,
		"pages": joinPages(pages),
	})
}

// Compress rewrites the document with duplicate objects removed and streams
// recompressed.
func Compress(doc []byte) (*Result, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Optimize(reader(doc), &out, newConfig()); err != nil {
		return nil, failed("compress", err)
	}

	affected := make([]int, count)
	for i := range affected {
		affected[i] = i + 1
	}
	return newResult(out.Bytes(), affected, map[string]string{
		"originalSize":   strconv.Itoa(len(doc)),
		"compressedSize": strconv.Itoa(out.Len()),
	})
}

func selectIn(doc []byte, selection []string) ([]int, error) {
	count, err := PageCount(doc)
	if err != nil {
		return nil, err
	}
	return SelectPages(count, selection)
}
