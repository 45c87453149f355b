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

package annotation

import (
	"fmt"
	"slices"
)

// ErrInvalidSourceSize is returned when a page set has no usable canvas size.
var ErrInvalidSourceSize = ErrInvalidAnnotation.WithCode("ErrInvalidSourceSize")

// PageSet holds every annotation of one page together with the size of the
// editing canvas the positions were recorded against.
type PageSet struct {
	PageIndex    int          `json:"pageIndex"`
	SourceWidth  float64      `json:"sourceWidth"`
	SourceHeight float64      `json:"sourceHeight"`
	Annotations  []Annotation `json:"annotations"`
}

// NewPageSet creates an empty page set for the given canvas size.
func NewPageSet(pageIndex int, sourceWidth, sourceHeight float64) PageSet {
	return PageSet{
		PageIndex:    pageIndex,
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
	}
}

// Add returns a copy of the set with the annotation appended. The
// annotation's page index is forced to the set's page.
func (s PageSet) Add(a Annotation) PageSet {
	c := s.Clone()
	a = a.Clone()
	a.Position.PageIndex = s.PageIndex
	c.Annotations = append(c.Annotations, a)
	return c
}

// Remove returns a copy of the set without the annotation of the given ID.
// Removing an absent ID returns an unchanged copy.
func Remove(set PageSet, id string) PageSet {
	c := set.Clone()
	c.Annotations = slices.DeleteFunc(c.Annotations, func(a Annotation) bool {
		return a.ID == id
	})
	return c
}

// Find returns the annotation of the given ID.
func (s PageSet) Find(id string) (Annotation, bool) {
	for _, a := range s.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// Clone returns a deep copy of the set.
func (s PageSet) Clone() PageSet {
	c := s
	if s.Annotations != nil {
		c.Annotations = make([]Annotation, len(s.Annotations))
		for i, a := range s.Annotations {
			c.Annotations[i] = a.Clone()
		}
	}
	return c
}

// Validate returns an error if the set or any of its annotations is invalid.
func (s PageSet) Validate() error {
	if s.PageIndex < 0 {
		return fmt.Errorf("page index %d: %w", s.PageIndex, ErrInvalidAnnotation)
	}
	if s.SourceWidth <= 0 || s.SourceHeight <= 0 {
		return fmt.Errorf("source size %gx%g: %w", s.SourceWidth, s.SourceHeight, ErrInvalidSourceSize)
	}
	for _, a := range s.Annotations {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("annotation %s: %w", a.ID, err)
		}
	}
	return nil
}

// CloneSets returns a deep copy of the given sets.
func CloneSets(sets []PageSet) []PageSet {
	if sets == nil {
		return nil
	}
	c := make([]PageSet, len(sets))
	for i, s := range sets {
		c[i] = s.Clone()
	}
	return c
}

// SortSets returns a copy of the sets in ascending page order. Sets of the
// same page keep their relative order.
func SortSets(sets []PageSet) []PageSet {
	c := CloneSets(sets)
	slices.SortStableFunc(c, func(a, b PageSet) int {
		return a.PageIndex - b.PageIndex
	})
	return c
}

// Put returns a copy of the sets with the set for set.PageIndex replaced, or
// appended when the page has no set yet.
func Put(sets []PageSet, set PageSet) []PageSet {
	c := CloneSets(sets)
	for i := range c {
		if c[i].PageIndex == set.PageIndex {
			c[i] = set.Clone()
			return c
		}
	}
	return append(c, set.Clone())
}

// Lookup returns the set of the given page.
func Lookup(sets []PageSet, pageIndex int) (PageSet, bool) {
	for _, s := range sets {
		if s.PageIndex == pageIndex {
			return s, true
		}
	}
	return PageSet{}, false
}

// Count returns the number of annotations across the sets.
func Count(sets []PageSet) int {
	n := 0
	for _, s := range sets {
		n += len(s.Annotations)
	}
	return n
}

// Reindex returns the sets after the pages in deleted (0-based) are removed
// from the document: sets of deleted pages are dropped and later pages shift
// down.
func Reindex(sets []PageSet, deleted []int) []PageSet {
	gone := make(map[int]bool, len(deleted))
	for _, d := range deleted {
		gone[d] = true
	}

	var result []PageSet
	for _, s := range CloneSets(sets) {
		if gone[s.PageIndex] {
			continue
		}
		shift := 0
		for d := range gone {
			if d < s.PageIndex {
				shift++
			}
		}
		s.PageIndex -= shift
		for i := range s.Annotations {
			s.Annotations[i].Position.PageIndex = s.PageIndex
		}
		result = append(result, s)
	}
	return result
}
