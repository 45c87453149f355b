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

package helper

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/font/standard"
)

// Below are the page sizes used by the fixtures.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// BlankPDF returns a document of n pages of the given size. Every page shows
// its page number so that no content stream is empty.
func BlankPDF(t testing.TB, n int, width, height float64) []byte {
	t.Helper()

	var buf bytes.Buffer
	doc, err := document.WriteMultiPage(&buf, &pdf.Rectangle{URx: width, URy: height}, pdf.V1_7, nil)
	require.NoError(t, err)

	font := standard.Helvetica.New()
	for i := 0; i < n; i++ {
		page := doc.AddPage()
		page.TextBegin()
		page.TextSetFont(font, 12)
		page.TextFirstLine(36, height-36)
		page.TextShow(fmt.Sprintf("page %d", i+1))
		page.TextEnd()
		require.NoError(t, page.Close())
	}
	require.NoError(t, doc.Close())

	return buf.Bytes()
}

// LetterPDF returns a document of n US letter pages.
func LetterPDF(t testing.TB, n int) []byte {
	return BlankPDF(t, n, LetterWidth, LetterHeight)
}

// PNG returns a width x height PNG filled with c.
func PNG(t testing.TB, width, height int, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
