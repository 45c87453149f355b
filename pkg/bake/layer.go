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

package bake

import (
	"fmt"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/graphics/content/builder"
	"seehuhn.de/go/pdf/graphics/extgstate"
	"seehuhn.de/go/pdf/graphics/image"

	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/geometry"
)

const (
	// HighlightDampening is applied to the opacity of highlights on top of
	// the style's own opacity.
	HighlightDampening = 0.3

	// DefaultFontSize is used for text annotations without a font size.
	DefaultFontSize = 16.0

	// DefaultStrokeWidth is used for shapes without a stroke width.
	DefaultStrokeWidth = 2.0

	lineSpacing = 1.2
)

type alpha struct {
	stroke float64
	fill   float64
}

// layer collects the drawing operations of every annotation of one page.
// All annotations share one resource dictionary.
type layer struct {
	box    pdf.Rectangle
	res    *content.Resources
	stream content.Stream

	fonts  map[standard.Font]font.Instance
	states map[alpha]*extgstate.ExtGState
}

func newLayer(box *pdf.Rectangle) *layer {
	return &layer{
		box:    *box,
		res:    &content.Resources{},
		fonts:  make(map[standard.Font]font.Instance),
		states: make(map[alpha]*extgstate.ExtGState),
	}
}

// draw appends the operations of one annotation. Every input is checked
// before drawing, and each annotation is built on its own builder, so a
// failing annotation never leaves partial output behind.
func (l *layer) draw(a annotation.Annotation, set annotation.PageSet) error {
	if err := a.Validate(); err != nil {
		return err
	}

	rect, err := geometry.ToTargetSpace(a.Position, set.SourceWidth, set.SourceHeight, l.box.Dx(), l.box.Dy())
	if err != nil {
		return err
	}

	stroke, err := parseColor(a.Style.StrokeColor)
	if err != nil {
		return err
	}
	var fill color.Color
	if a.Style.FillColor != "" {
		if fill, err = parseColor(a.Style.FillColor); err != nil {
			return err
		}
	}

	var raster *image.Dict
	if a.Kind == annotation.KindFreehand {
		if raster, err = decodeRaster(a.Content.Image); err != nil {
			return err
		}
	}

	opacity := a.Style.Alpha()

	b := builder.New(content.Form, l.res)
	b.PushGraphicsState()
	if l.box.LLx != 0 || l.box.LLy != 0 {
		b.Transform(matrix.Translate(l.box.LLx, l.box.LLy))
	}

	switch a.Kind {
	case annotation.KindText:
		l.drawText(b, a, rect, stroke, opacity)
	case annotation.KindHighlight:
		if fill == nil {
			fill = stroke
		}
		b.SetExtGState(l.state(0, opacity*HighlightDampening))
		b.SetFillColor(fill)
		bl := rect.BottomLeft()
		b.Rectangle(bl.X, bl.Y, bl.Width, bl.Height)
		b.Fill()
	case annotation.KindRectangle:
		l.strokeStyle(b, a, rect, stroke, fill, opacity)
		bl := rect.BottomLeft()
		b.Rectangle(bl.X, bl.Y, bl.Width, bl.Height)
		paint(b, fill)
	case annotation.KindCircle:
		l.strokeStyle(b, a, rect, stroke, fill, opacity)
		points := geometry.Ellipse(rect.Center(), rect.Width/2, rect.Height/2, geometry.MinEllipseSegments)
		b.MoveTo(points[0].X, points[0].Y)
		for _, p := range points[1:] {
			b.LineTo(p.X, p.Y)
		}
		b.ClosePath()
		paint(b, fill)
	case annotation.KindLine, annotation.KindArrow:
		l.strokeStyle(b, a, rect, stroke, nil, opacity)
		b.SetLineCap(graphics.LineCapRound)
		from, to := rect.Line()
		b.MoveTo(from.X, from.Y)
		b.LineTo(to.X, to.Y)
		if a.Kind == annotation.KindArrow {
			for _, seg := range geometry.ArrowHead(from, to) {
				b.MoveTo(seg.From.X, seg.From.Y)
				b.LineTo(seg.To.X, seg.To.Y)
			}
		}
		b.Stroke()
	case annotation.KindFreehand:
		b.SetExtGState(l.state(opacity, opacity))
		bl := rect.BottomLeft()
		b.Transform(matrix.Matrix{bl.Width, 0, 0, bl.Height, bl.X, bl.Y})
		b.DrawXObject(raster)
	}

	b.PopGraphicsState()
	if err := b.Close(); err != nil {
		return fmt.Errorf("draw %s: %s: %w", a.Kind, err.Error(), annotation.ErrInvalidAnnotation)
	}
	ops, err := b.Harvest()
	if err != nil {
		return fmt.Errorf("draw %s: %s: %w", a.Kind, err.Error(), annotation.ErrInvalidAnnotation)
	}

	l.stream = append(l.stream, ops...)
	return nil
}

func (l *layer) strokeStyle(
	b *builder.Builder,
	a annotation.Annotation,
	rect geometry.TargetRect,
	stroke, fill color.Color,
	opacity float64,
) {
	width := a.Style.StrokeWidth
	if width == 0 {
		width = DefaultStrokeWidth
	}

	b.SetExtGState(l.state(opacity, opacity))
	b.SetLineWidth(width * (rect.ScaleX + rect.ScaleY) / 2)
	b.SetStrokeColor(stroke)
	if fill != nil {
		b.SetFillColor(fill)
	}
}

func paint(b *builder.Builder, fill color.Color) {
	if fill != nil {
		b.FillAndStroke()
		return
	}
	b.Stroke()
}

// drawText draws the text with its first line hanging from the top edge of
// the box. Lines are split on newlines and never wrapped.
func (l *layer) drawText(b *builder.Builder, a annotation.Annotation, rect geometry.TargetRect, c color.Color, opacity float64) {
	size := a.Style.FontSize
	if size == 0 {
		size = DefaultFontSize
	}
	size *= rect.ScaleY

	b.SetExtGState(l.state(opacity, opacity))
	b.SetFillColor(c)
	b.TextBegin()
	b.TextSetFont(l.font(a.Style), size)
	for i, line := range strings.Split(a.Content.Text, "\n") {
		if i == 0 {
			b.TextFirstLine(rect.X, rect.Y-size)
		} else {
			b.TextFirstLine(0, -size*lineSpacing)
		}
		b.TextShow(line)
	}
	b.TextEnd()
}

func (l *layer) state(stroke, fill float64) *extgstate.ExtGState {
	key := alpha{stroke: stroke, fill: fill}
	if gs, ok := l.states[key]; ok {
		return gs
	}

	gs := &extgstate.ExtGState{
		Set:         graphics.StateStrokeAlpha | graphics.StateFillAlpha,
		StrokeAlpha: stroke,
		FillAlpha:   fill,
	}
	l.states[key] = gs
	return gs
}

func (l *layer) font(style annotation.Style) font.Instance {
	name := standardFont(style.FontFamily, style.FontWeight)
	if f, ok := l.fonts[name]; ok {
		return f
	}

	f := name.New()
	l.fonts[name] = f
	return f
}

// standardFont maps a CSS-like family and weight to one of the standard 14
// fonts. Unknown families fall back to Helvetica.
func standardFont(family, weight string) standard.Font {
	bold := false
	switch strings.ToLower(weight) {
	case "bold", "bolder", "600", "700", "800", "900":
		bold = true
	}

	switch strings.ToLower(family) {
	case "times", "times new roman", "times-roman", "serif":
		if bold {
			return standard.TimesBold
		}
		return standard.TimesRoman
	case "courier", "courier new", "monospace":
		if bold {
			return standard.CourierBold
		}
		return standard.Courier
	default:
		if bold {
			return standard.HelveticaBold
		}
		return standard.Helvetica
	}
}
