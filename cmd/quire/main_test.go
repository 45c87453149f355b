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


package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/pdfops"
	"github.com/quire-team/quire/test/helper"
)

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestBakeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(in, helper.LetterPDF(t, 2), 0o600))

	inRange := annotation.New(
		annotation.KindRectangle,
		annotation.Position{X: 10, Y: 10, Width: 50, Height: 20},
		annotation.Style{StrokeColor: "#0000ff", StrokeWidth: 1, Opacity: annotation.Opacity(1)},
		annotation.Content{},
	)
	outOfRange := annotation.New(
		annotation.KindRectangle,
		annotation.Position{X: 10, Y: 10, Width: 50, Height: 20, PageIndex: 5},
		annotation.Style{StrokeColor: "#0000ff", StrokeWidth: 1, Opacity: annotation.Opacity(1)},
		annotation.Content{},
	)
	sets := []annotation.PageSet{
		annotation.NewPageSet(5, 612, 792).Add(outOfRange),
		annotation.NewPageSet(0, 612, 792).Add(inRange),
	}
	data, err := json.Marshal(sets)
	require.NoError(t, err)
	annotations := filepath.Join(dir, "annotations.json")
	require.NoError(t, os.WriteFile(annotations, data, 0o600))

	t.Run("bake with skipped annotations test", func(t *testing.T) {
		out := filepath.Join(dir, "out.pdf")
		stdout, err := execute(t, "bake", "--in", in, "--annotations", annotations, "--out", out)
		require.NoError(t, err)
		assert.Contains(t, stdout, "baked 1 annotations into 2 pages")
		assert.Contains(t, stdout, outOfRange.ID)

		baked, err := os.ReadFile(out)
		require.NoError(t, err)
		count, err := pdfops.PageCount(baked)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("bad annotation does not abort the bake test", func(t *testing.T) {
		good := annotation.New(
			annotation.KindRectangle,
			annotation.Position{X: 20, Y: 20, Width: 40, Height: 40},
			annotation.Style{StrokeColor: "#00ff00", StrokeWidth: 1},
			annotation.Content{},
		)
		badColor := annotation.New(
			annotation.KindRectangle,
			annotation.Position{X: 30, Y: 30, Width: 40, Height: 40},
			annotation.Style{StrokeColor: "blue", StrokeWidth: 1},
			annotation.Content{},
		)
		data, err := json.Marshal([]annotation.PageSet{
			annotation.NewPageSet(0, 612, 792).Add(inRange),
			annotation.NewPageSet(1, 612, 792).Add(good).Add(badColor),
		})
		require.NoError(t, err)
		mixed := filepath.Join(dir, "mixed.json")
		require.NoError(t, os.WriteFile(mixed, data, 0o600))

		out := filepath.Join(dir, "mixed.pdf")
		stdout, err := execute(t, "bake", "--in", in, "--annotations", mixed, "--out", out)
		require.NoError(t, err)
		assert.Contains(t, stdout, "baked 2 annotations into 2 pages")
		assert.Contains(t, stdout, badColor.ID)
		assert.NotContains(t, stdout, good.ID)

		baked, err := os.ReadFile(out)
		require.NoError(t, err)
		count, err := pdfops.PageCount(baked)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("missing flags test", func(t *testing.T) {
		_, err := execute(t, "bake", "--in", in, "--annotations", "", "--out", "")
		assert.Error(t, err)
	})
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, helper.LetterPDF(t, 3), 0o600))

	t.Run("inspect table test", func(t *testing.T) {
		stdout, err := execute(t, "inspect", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "612.00")
		assert.Contains(t, stdout, "792.00")
	})

	t.Run("inspect json test", func(t *testing.T) {
		stdout, err := execute(t, "inspect", "-o", "json", path)
		require.NoError(t, err)

		var info pdfops.Info
		require.NoError(t, json.Unmarshal([]byte(stdout), &info))
		assert.Equal(t, 3, info.PageCount)
		inspectOutput = ""
	})

	t.Run("unknown output test", func(t *testing.T) {
		_, err := execute(t, "inspect", "-o", "xml", path)
		assert.Error(t, err)
		inspectOutput = ""
	})
}
