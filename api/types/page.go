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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPageID is returned when a page ID is not of the form "page-<n>".
var ErrInvalidPageID = errors.New("invalid page ID")

// PageID returns the ID of the page at the given 0-based index. Page IDs are
// 1-based: the first page is "page-1".
func PageID(index int) string {
	return "page-" + strconv.Itoa(index+1)
}

// PageIDs returns the IDs of the pages at the given 0-based indexes.
func PageIDs(indexes ...int) []string {
	ids := make([]string, len(indexes))
	for i, index := range indexes {
		ids[i] = PageID(index)
	}
	return ids
}

// PageIndex returns the 0-based index of the given page ID.
func PageIndex(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "page-"))
	if err != nil || !strings.HasPrefix(id, "page-") || n < 1 {
		return 0, fmt.Errorf("%q: %w", id, ErrInvalidPageID)
	}
	return n - 1, nil
}
