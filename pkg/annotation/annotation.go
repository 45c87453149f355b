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

// Package annotation provides the in-memory model of user-drawn marks. Every
// position is expressed in the source space of the editing surface: origin at
// the top-left, Y growing downward, measured against the canvas size recorded
// in the enclosing PageSet.
package annotation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quire-team/quire/pkg/errors"
)

// ErrInvalidAnnotation is returned when an annotation is malformed.
var ErrInvalidAnnotation = errors.InvalidArgument("invalid annotation").WithCode("ErrInvalidAnnotation")

// Kind is the kind of an annotation.
type Kind string

// Below are the supported kinds of annotations.
const (
	KindText      Kind = "text"
	KindHighlight Kind = "highlight"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindArrow     Kind = "arrow"
	KindFreehand  Kind = "freehand"
)

// Kinds lists every supported kind.
var Kinds = []Kind{
	KindText,
	KindHighlight,
	KindRectangle,
	KindCircle,
	KindLine,
	KindArrow,
	KindFreehand,
}

// IsValid returns whether the kind is one of the supported kinds.
func (k Kind) IsValid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Position is the placement of an annotation in source space. Lines and
// arrows run from (X, Y) to (X+Width, Y+Height), so their extent may be
// negative.
type Position struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	PageIndex int     `json:"pageIndex" validate:"gte=0"`
}

// Style is the visual style of an annotation. Colors are "#rrggbb" strings.
type Style struct {
	StrokeColor string   `json:"strokeColor" validate:"required,hexcolor"`
	FillColor   string   `json:"fillColor,omitempty" validate:"omitempty,hexcolor"`
	StrokeWidth float64  `json:"strokeWidth" validate:"gte=0"`
	Opacity     *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
	FontSize    float64  `json:"fontSize,omitempty" validate:"gte=0"`
	FontFamily  string   `json:"fontFamily,omitempty"`
	FontWeight  string   `json:"fontWeight,omitempty"`
}

// Content is the payload of an annotation: a string for text and a
// pre-rendered PNG or JPEG raster of the stroke for freehand.
type Content struct {
	Text  string `json:"text,omitempty"`
	Image []byte `json:"image,omitempty"`
}

// Annotation is one user-drawn mark.
type Annotation struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Position  Position  `json:"position"`
	Style     Style     `json:"style"`
	Content   Content   `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates an annotation with a fresh ID and creation time. Positions are
// not checked against page bounds; marks outside the page render off-page.
func New(kind Kind, pos Position, style Style, content Content) Annotation {
	return Annotation{
		ID:        uuid.NewString(),
		Kind:      kind,
		Position:  pos,
		Style:     style,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Validate returns an error if the annotation cannot be rendered.
func (a Annotation) Validate() error {
	if !a.Kind.IsValid() {
		return fmt.Errorf("kind %q: %w", a.Kind, ErrInvalidAnnotation)
	}
	if a.Position.PageIndex < 0 {
		return fmt.Errorf("page index %d: %w", a.Position.PageIndex, ErrInvalidAnnotation)
	}

	pos := a.Position
	switch a.Kind {
	case KindText:
		if a.Content.Text == "" {
			return fmt.Errorf("text annotation without text: %w", ErrInvalidAnnotation)
		}
	case KindLine, KindArrow:
		if pos.Width == 0 && pos.Height == 0 {
			return fmt.Errorf("%s annotation of zero length: %w", a.Kind, ErrInvalidAnnotation)
		}
	default:
		if pos.Width <= 0 || pos.Height <= 0 {
			return fmt.Errorf("%s annotation of size %gx%g: %w", a.Kind, pos.Width, pos.Height, ErrInvalidAnnotation)
		}
	}

	if a.Kind == KindFreehand && len(a.Content.Image) == 0 {
		return fmt.Errorf("freehand annotation without raster: %w", ErrInvalidAnnotation)
	}

	if err := validateStyle(a.Style); err != nil {
		return fmt.Errorf("style: %s: %w", err.Error(), ErrInvalidAnnotation)
	}

	return nil
}

// Opacity returns a pointer to v, for setting Style.Opacity.
func Opacity(v float64) *float64 {
	return &v
}

// Alpha returns the opacity of the style. An unset opacity is fully opaque;
// an explicit 0 is fully transparent.
func (s Style) Alpha() float64 {
	if s.Opacity == nil {
		return 1
	}
	return *s.Opacity
}

// Clone returns a deep copy of the annotation.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Style.Opacity != nil {
		c.Style.Opacity = Opacity(*a.Style.Opacity)
	}
	if a.Content.Image != nil {
		c.Content.Image = append([]byte(nil), a.Content.Image...)
	}
	return c
}
