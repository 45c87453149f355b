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
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SelectPages resolves a page selection against a document of pageCount
// pages and returns the selected 1-based page numbers in ascending order.
// The selection uses pdfcpu syntax, e.g. "1-3", "5", "even" or "1-,!4". An
// empty selection selects every page.
func SelectPages(pageCount int, selection []string) ([]int, error) {
	if pageCount <= 0 {
		return nil, fmt.Errorf("document without pages: %w", ErrInvalidPageRange)
	}

	var parsed []string
	if len(selection) > 0 {
		var err error
		parsed, err = api.ParsePageSelection(strings.Join(selection, ","))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", strings.Join(selection, ","), ErrInvalidPageRange)
		}
		if err := checkBounds(pageCount, parsed); err != nil {
			return nil, err
		}
	}

	set, err := api.PagesForPageSelection(pageCount, parsed, true, false)
	if err != nil {
		return nil, fmt.Errorf("%q: %s: %w", strings.Join(selection, ","), err.Error(), ErrInvalidPageRange)
	}

	var pages []int
	for page, ok := range set {
		if ok && page >= 1 && page <= pageCount {
			pages = append(pages, page)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%q selects no pages: %w", strings.Join(selection, ","), ErrInvalidPageRange)
	}
	slices.Sort(pages)
	return pages, nil
}

// ValidSelection reports whether expr is a well-formed page selection. It
// does not check the pages against a document.
func ValidSelection(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	_, err := api.ParsePageSelection(expr)
	return err == nil
}

// checkBounds rejects explicit page numbers beyond the document. pdfcpu
// silently ignores them.
func checkBounds(pageCount int, parsed []string) error {
	for _, expr := range parsed {
		expr = strings.TrimLeft(expr, "!n")
		for _, part := range strings.Split(expr, "-") {
			n, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			if n < 1 || n > pageCount {
				return fmt.Errorf("page %d of %d: %w", n, pageCount, ErrInvalidPageRange)
			}
		}
	}
	return nil
}

func toSelection(pages []int) []string {
	selection := make([]string, len(pages))
	for i, p := range pages {
		selection[i] = strconv.Itoa(p)
	}
	return selection
}

func joinPages(pages []int) string {
	return strings.Join(toSelection(pages), ",")
}
