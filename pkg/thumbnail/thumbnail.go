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

// Package thumbnail produces the light page previews kept in history
// snapshots. Turning a page into pixels is delegated to a Rasterizer.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/pdfops"
)

// DefaultWidth is the width of thumbnails in pixels.
const DefaultWidth = 160

// Rasterizer renders one page of a document to a bitmap. At scale 1 one
// point becomes one pixel.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc []byte, pageIndex int, scale float64) (image.Image, error)
}

// Blank is a Rasterizer that renders empty pages with the page's size and a
// thin border. It stands in when no real renderer is configured.
type Blank struct{}

// Rasterize implements Rasterizer.
func (Blank) Rasterize(ctx context.Context, doc []byte, pageIndex int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := pdfops.Inspect(doc)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= info.PageCount {
		return nil, fmt.Errorf("page %d of %d: %w", pageIndex, info.PageCount, pdfops.ErrInvalidPageRange)
	}

	return blankPage(info.Pages[pageIndex], scale), nil
}

func blankPage(size pdfops.PageSize, scale float64) image.Image {
	if scale <= 0 {
		scale = 1
	}
	w := max(int(size.Width*scale), 1)
	h := max(int(size.Height*scale), 1)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	border := color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	for x := 0; x < w; x++ {
		img.SetNRGBA(x, 0, border)
		img.SetNRGBA(x, h-1, border)
	}
	for y := 0; y < h; y++ {
		img.SetNRGBA(0, y, border)
		img.SetNRGBA(w-1, y, border)
	}
	return img
}

// Generate renders one page and returns it as a PNG of the given width.
func Generate(ctx context.Context, r Rasterizer, doc []byte, pageIndex, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}

	src, err := r.Rasterize(ctx, doc, pageIndex, 1)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", pageIndex, err)
	}

	return encode(Scale(src, width))
}

// GenerateAll renders every page of the document and returns the PNGs keyed
// by page ID.
func GenerateAll(ctx context.Context, r Rasterizer, doc []byte, width int) (map[string][]byte, error) {
	count, err := pdfops.PageCount(doc)
	if err != nil {
		return nil, err
	}

	thumbs := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		thumb, err := Generate(ctx, r, doc, i, width)
		if err != nil {
			return nil, err
		}
		thumbs[types.PageID(i)] = thumb
	}
	return thumbs, nil
}

// Scale resizes src to the given width, keeping its aspect ratio.
func Scale(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return src
	}
	height := max(b.Dy()*width/b.Dx(), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
