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
	"bytes"
	"fmt"
	goimage "image"
	"strconv"
	"strings"

	// Registered raster formats for freehand strokes.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"seehuhn.de/go/pdf/graphics/color"
	"seehuhn.de/go/pdf/graphics/image"

	"github.com/quire-team/quire/pkg/errors"
)

var (
	// ErrInvalidColor is returned for colors that are not "#rgb", "#rgba",
	// "#rrggbb" or "#rrggbbaa".
	ErrInvalidColor = errors.InvalidArgument("invalid color").WithCode("ErrInvalidColor")

	// ErrInvalidRaster is returned when a freehand raster cannot be decoded.
	ErrInvalidRaster = errors.InvalidArgument("invalid raster").WithCode("ErrInvalidRaster")
)

// parseColor parses a hex color. The alpha component, if any, is ignored;
// opacity comes from the style.
func parseColor(s string) (color.DeviceRGB, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == len(s) {
		return color.DeviceRGB{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}

	switch len(hex) {
	case 3, 4:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
		hex = hex[:6]
	default:
		return color.DeviceRGB{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}

	var rgb color.DeviceRGB
	for i := range rgb {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.DeviceRGB{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
		}
		rgb[i] = float64(v) / 255
	}
	return rgb, nil
}

// decodeRaster decodes a PNG, JPEG or WebP raster into an image XObject.
func decodeRaster(data []byte) (*image.Dict, error) {
	img, _, err := goimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", err.Error(), ErrInvalidRaster)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty raster: %w", ErrInvalidRaster)
	}

	dict, err := image.PNG(img, nil)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", err.Error(), ErrInvalidRaster)
	}
	return dict, nil
}
