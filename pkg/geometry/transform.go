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

// Package geometry maps annotation positions from the editing surface to the
// native page space of a document and derives the primitive shapes the bake
// engine draws.
//
// Source space has its origin at the top-left with Y growing downward.
// Target space is PDF user space: origin at the bottom-left, Y growing upward.
package geometry

import (
	"fmt"

	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/errors"
)

var (
	// ErrInvalidSourceDimensions is returned when the recorded canvas size is
	// zero or negative.
	ErrInvalidSourceDimensions = errors.InvalidArgument(
		"invalid source dimensions",
	).WithCode("ErrInvalidSourceDimensions")

	// ErrInvalidTargetDimensions is returned when the page size is zero or
	// negative.
	ErrInvalidTargetDimensions = errors.InvalidArgument(
		"invalid target dimensions",
	).WithCode("ErrInvalidTargetDimensions")
)

// TargetRect is a position mapped into target space. (X, Y) is the image of
// the source top-left corner, so Y is the top edge of a box.
type TargetRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64

	ScaleX float64
	ScaleY float64
}

// ToTargetSpace maps pos from a sourceW x sourceH canvas to a targetW x
// targetH page. The axes scale independently and Y is flipped once.
func ToTargetSpace(pos annotation.Position, sourceW, sourceH, targetW, targetH float64) (TargetRect, error) {
	if sourceW <= 0 || sourceH <= 0 {
		return TargetRect{}, fmt.Errorf("%gx%g: %w", sourceW, sourceH, ErrInvalidSourceDimensions)
	}
	if targetW <= 0 || targetH <= 0 {
		return TargetRect{}, fmt.Errorf("%gx%g: %w", targetW, targetH, ErrInvalidTargetDimensions)
	}

	scaleX := targetW / sourceW
	scaleY := targetH / sourceH

	return TargetRect{
		X:      pos.X * scaleX,
		Y:      targetH - pos.Y*scaleY,
		Width:  pos.Width * scaleX,
		Height: pos.Height * scaleY,
		ScaleX: scaleX,
		ScaleY: scaleY,
	}, nil
}

// BottomLeft returns the rectangle anchored at its own bottom-left corner, as
// expected by rectangle, ellipse and image primitives. Apply it exactly once,
// at the point of drawing.
func (r TargetRect) BottomLeft() TargetRect {
	r.Y -= r.Height
	return r
}

// Line returns the endpoints of a line or arrow. The source vector (Width,
// Height) points down for positive Height, so it is negated on the Y axis.
func (r TargetRect) Line() (Point, Point) {
	return Point{X: r.X, Y: r.Y}, Point{X: r.X + r.Width, Y: r.Y - r.Height}
}

// Center returns the center of the box.
func (r TargetRect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y - r.Height/2}
}
