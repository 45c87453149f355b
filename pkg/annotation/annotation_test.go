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

package annotation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quire-team/quire/pkg/annotation"
)

var defaultStyle = annotation.Style{
	StrokeColor: "#ff0000",
	StrokeWidth: 2,
	Opacity:     annotation.Opacity(1),
}

func rect(page int) annotation.Annotation {
	return annotation.New(
		annotation.KindRectangle,
		annotation.Position{X: 10, Y: 10, Width: 100, Height: 50, PageIndex: page},
		defaultStyle,
		annotation.Content{},
	)
}

func TestNew(t *testing.T) {
	t.Run("fresh id and timestamp test", func(t *testing.T) {
		a := rect(0)
		b := rect(0)
		assert.NotEmpty(t, a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.False(t, a.CreatedAt.IsZero())
		assert.NoError(t, a.Validate())
	})

	t.Run("out of page bounds is permitted test", func(t *testing.T) {
		a := annotation.New(
			annotation.KindRectangle,
			annotation.Position{X: -500, Y: 10000, Width: 10, Height: 10},
			defaultStyle,
			annotation.Content{},
		)
		assert.NoError(t, a.Validate())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		a     annotation.Annotation
		valid bool
	}{
		{"text without size", annotation.New(annotation.KindText, annotation.Position{X: 1, Y: 1}, defaultStyle, annotation.Content{Text: "hi"}), true},
		{"text without string", annotation.New(annotation.KindText, annotation.Position{X: 1, Y: 1}, defaultStyle, annotation.Content{}), false},
		{"horizontal arrow", annotation.New(annotation.KindArrow, annotation.Position{Width: 100}, defaultStyle, annotation.Content{}), true},
		{"backward line", annotation.New(annotation.KindLine, annotation.Position{X: 50, Width: -40, Height: -10}, defaultStyle, annotation.Content{}), true},
		{"zero length line", annotation.New(annotation.KindLine, annotation.Position{X: 50}, defaultStyle, annotation.Content{}), false},
		{"flat rectangle", annotation.New(annotation.KindRectangle, annotation.Position{Width: 10}, defaultStyle, annotation.Content{}), false},
		{"freehand without raster", annotation.New(annotation.KindFreehand, annotation.Position{Width: 10, Height: 10}, defaultStyle, annotation.Content{}), false},
		{"unknown kind", annotation.New(annotation.Kind("polygon"), annotation.Position{Width: 10, Height: 10}, defaultStyle, annotation.Content{}), false},
		{"bad color", annotation.New(annotation.KindCircle, annotation.Position{Width: 10, Height: 10}, annotation.Style{StrokeColor: "red", Opacity: annotation.Opacity(1)}, annotation.Content{}), false},
		{"opacity over one", annotation.New(annotation.KindCircle, annotation.Position{Width: 10, Height: 10}, annotation.Style{StrokeColor: "#000000", Opacity: annotation.Opacity(1.5)}, annotation.Content{}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name+" test", func(t *testing.T) {
			err := tt.a.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, annotation.ErrInvalidAnnotation)
			}
		})
	}
}

func TestStyle(t *testing.T) {
	t.Run("unset opacity is opaque test", func(t *testing.T) {
		assert.Equal(t, 1.0, annotation.Style{}.Alpha())
		assert.Equal(t, 0.0, annotation.Style{Opacity: annotation.Opacity(0)}.Alpha())
		assert.Equal(t, 0.4, annotation.Style{Opacity: annotation.Opacity(0.4)}.Alpha())
	})

	t.Run("explicit zero opacity survives json test", func(t *testing.T) {
		var unset, zero annotation.Style
		assert.NoError(t, json.Unmarshal([]byte(`{"strokeColor":"#000000"}`), &unset))
		assert.NoError(t, json.Unmarshal([]byte(`{"strokeColor":"#000000","opacity":0}`), &zero))
		assert.Nil(t, unset.Opacity)
		assert.Equal(t, 1.0, unset.Alpha())
		assert.Equal(t, 0.0, zero.Alpha())

		data, err := json.Marshal(zero)
		assert.NoError(t, err)
		assert.Contains(t, string(data), `"opacity":0`)
	})

	t.Run("style errors are readable test", func(t *testing.T) {
		a := annotation.New(annotation.KindRectangle, annotation.Position{Width: 10, Height: 10}, annotation.Style{StrokeColor: "blue"}, annotation.Content{})
		err := a.Validate()
		assert.ErrorIs(t, err, annotation.ErrInvalidAnnotation)
		assert.Contains(t, err.Error(), "StrokeColor must be a valid HEX color")
	})

	t.Run("clone does not alias opacity test", func(t *testing.T) {
		a := rect(0)
		a.Style.Opacity = annotation.Opacity(0.5)
		set := annotation.NewPageSet(0, 10, 10).Add(a)
		*a.Style.Opacity = 0.9
		assert.Equal(t, 0.5, set.Annotations[0].Style.Alpha())
	})
}

func TestPageSet(t *testing.T) {
	t.Run("add keeps insertion order test", func(t *testing.T) {
		a, b := rect(0), rect(0)
		set := annotation.NewPageSet(2, 800, 600).Add(a).Add(b)

		assert.Len(t, set.Annotations, 2)
		assert.Equal(t, a.ID, set.Annotations[0].ID)
		assert.Equal(t, b.ID, set.Annotations[1].ID)
		assert.Equal(t, 2, set.Annotations[0].Position.PageIndex)
	})

	t.Run("remove test", func(t *testing.T) {
		a, b := rect(0), rect(0)
		set := annotation.NewPageSet(0, 800, 600).Add(a).Add(b)

		removed := annotation.Remove(set, a.ID)
		assert.Len(t, removed.Annotations, 1)
		assert.Equal(t, b.ID, removed.Annotations[0].ID)
		assert.Len(t, set.Annotations, 2)

		_, ok := removed.Find(a.ID)
		assert.False(t, ok)
	})

	t.Run("remove absent id is a no-op test", func(t *testing.T) {
		set := annotation.NewPageSet(0, 800, 600).Add(rect(0))
		assert.Equal(t, set, annotation.Remove(set, "absent"))
	})

	t.Run("clone does not alias raster test", func(t *testing.T) {
		a := annotation.New(
			annotation.KindFreehand,
			annotation.Position{Width: 10, Height: 10},
			defaultStyle,
			annotation.Content{Image: []byte{1, 2, 3}},
		)
		set := annotation.NewPageSet(0, 10, 10).Add(a)
		a.Content.Image[0] = 9
		assert.Equal(t, byte(1), set.Annotations[0].Content.Image[0])
	})

	t.Run("validate source size test", func(t *testing.T) {
		assert.ErrorIs(t, annotation.NewPageSet(0, 0, 600).Validate(), annotation.ErrInvalidSourceSize)
		assert.NoError(t, annotation.NewPageSet(0, 800, 600).Add(rect(0)).Validate())
	})
}

func TestSets(t *testing.T) {
	t.Run("sort and put test", func(t *testing.T) {
		sets := []annotation.PageSet{
			annotation.NewPageSet(3, 10, 10),
			annotation.NewPageSet(1, 10, 10),
		}
		sets = annotation.Put(sets, annotation.NewPageSet(1, 20, 20).Add(rect(1)))
		sets = annotation.Put(sets, annotation.NewPageSet(0, 10, 10))

		sorted := annotation.SortSets(sets)
		assert.Equal(t, []int{0, 1, 3}, []int{sorted[0].PageIndex, sorted[1].PageIndex, sorted[2].PageIndex})
		assert.Equal(t, 20.0, sorted[1].SourceWidth)
		assert.Equal(t, 1, annotation.Count(sorted))

		set, ok := annotation.Lookup(sorted, 3)
		assert.True(t, ok)
		assert.Equal(t, 3, set.PageIndex)
	})

	t.Run("reindex after delete test", func(t *testing.T) {
		sets := []annotation.PageSet{
			annotation.NewPageSet(0, 10, 10).Add(rect(0)),
			annotation.NewPageSet(1, 10, 10).Add(rect(1)),
			annotation.NewPageSet(4, 10, 10).Add(rect(4)),
		}

		result := annotation.Reindex(sets, []int{1, 2})
		assert.Len(t, result, 2)
		assert.Equal(t, 0, result[0].PageIndex)
		assert.Equal(t, 2, result[1].PageIndex)
		assert.Equal(t, 2, result[1].Annotations[0].Position.PageIndex)
	})
}
