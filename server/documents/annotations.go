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

package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/bake"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/server/backend"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/backend/sync"
)

// ErrAnnotationNotFound is returned when the annotation could not be found.
var ErrAnnotationNotFound = errors.NotFound("annotation not found").WithCode("ErrAnnotationNotFound")

// SetPageAnnotations replaces the annotation set of one page. The document
// bytes are left untouched until the next bake.
func SetPageAnnotations(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	set annotation.PageSet,
) (*database.DocInfo, error) {
	return editPages(ctx, be, id, set.PageIndex, func(sets []annotation.PageSet) ([]annotation.PageSet, error) {
		for i := range set.Annotations {
			prepare(&set.Annotations[i], set.PageIndex)
		}
		if err := set.Validate(); err != nil {
			return nil, err
		}
		return annotation.Put(sets, set), nil
	})
}

// AddAnnotation appends an annotation to the set of the given page. The page
// must already have a set so the canvas size is known.
func AddAnnotation(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	pageIndex int,
	a annotation.Annotation,
) (annotation.Annotation, error) {
	prepare(&a, pageIndex)

	_, err := editPages(ctx, be, id, pageIndex, func(sets []annotation.PageSet) ([]annotation.PageSet, error) {
		set, ok := annotation.Lookup(sets, pageIndex)
		if !ok {
			return nil, fmt.Errorf("page %d has no canvas size: %w", pageIndex, annotation.ErrInvalidSourceSize)
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		return annotation.Put(sets, set.Add(a)), nil
	})
	if err != nil {
		return annotation.Annotation{}, err
	}

	return a, nil
}

// RemoveAnnotation removes the annotation from the set of the given page.
func RemoveAnnotation(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	pageIndex int,
	annotationID string,
) error {
	_, err := editPages(ctx, be, id, pageIndex, func(sets []annotation.PageSet) ([]annotation.PageSet, error) {
		set, ok := annotation.Lookup(sets, pageIndex)
		if !ok {
			return nil, fmt.Errorf("remove %s: %w", annotationID, ErrAnnotationNotFound)
		}
		if _, ok := set.Find(annotationID); !ok {
			return nil, fmt.Errorf("remove %s: %w", annotationID, ErrAnnotationNotFound)
		}
		return annotation.Put(sets, annotation.Remove(set, annotationID)), nil
	})
	return err
}

func editPages(
	ctx context.Context,
	be *backend.Backend,
	id types.ID,
	pageIndex int,
	edit func(sets []annotation.PageSet) ([]annotation.PageSet, error),
) (*database.DocInfo, error) {
	locker := be.Lockers.Locker(sync.DocKey(id))
	locker.Lock()
	defer unlock(ctx, locker)

	docInfo, err := be.DB.FindDocInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if pageIndex < 0 || pageIndex >= docInfo.TotalPages {
		return nil, fmt.Errorf(
			"page %d of %d pages: %w",
			pageIndex,
			docInfo.TotalPages,
			bake.ErrInvalidPageReference,
		)
	}

	sets, err := edit(docInfo.Pages)
	if err != nil {
		return nil, err
	}

	docInfo.Pages = annotation.SortSets(sets)
	if err := be.DB.UpdateDocInfo(ctx, docInfo); err != nil {
		return nil, err
	}

	return docInfo, nil
}

// prepare fills the ID and creation time of a new annotation and pins it to
// the page.
func prepare(a *annotation.Annotation, pageIndex int) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Position.PageIndex = pageIndex
}
