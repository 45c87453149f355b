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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/bake"
)

var (
	bakeInPath          string
	bakeAnnotationsPath string
	bakeOutPath         string
)

func newBakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bake --in [pdf] --annotations [json] --out [pdf]",
		Short: "Draw the annotations into the pages of a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bakeInPath == "" || bakeAnnotationsPath == "" || bakeOutPath == "" {
				return errors.New("--in, --annotations and --out are required")
			}

			original, err := os.ReadFile(filepath.Clean(bakeInPath))
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			sets, err := readPageSets(bakeAnnotationsPath)
			if err != nil {
				return err
			}

			baked, report, err := bake.Bake(original, sets)
			if err != nil {
				return err
			}

			if err := os.WriteFile(filepath.Clean(bakeOutPath), baked, 0o600); err != nil {
				return fmt.Errorf("write document: %w", err)
			}

			cmd.Printf("baked %d annotations into %d pages: %s\n", report.Applied, report.Pages, bakeOutPath)
			if len(report.Skipped) > 0 {
				cmd.Printf("%s\n", renderSkipped(report.Skipped))
			}
			return nil
		},
	}
}

// readPageSets reads the page sets of the given JSON file. Sets are not
// validated here: bake skips each bad annotation and reports it.
func readPageSets(path string) ([]annotation.PageSet, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}

	var sets []annotation.PageSet
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("unmarshal annotations: %w", err)
	}
	return annotation.SortSets(sets), nil
}

func renderSkipped(skipped []bake.Skipped) string {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{
		"SKIPPED",
		"PAGE",
		"REASON",
	})
	for _, s := range skipped {
		tw.AppendRow(table.Row{
			s.AnnotationID,
			s.PageIndex,
			s.Err,
		})
	}
	return tw.Render()
}

func init() {
	cmd := newBakeCmd()
	cmd.Flags().StringVar(
		&bakeInPath,
		"in",
		"",
		"Path of the original document",
	)
	cmd.Flags().StringVar(
		&bakeAnnotationsPath,
		"annotations",
		"",
		"Path of the JSON array of page annotation sets",
	)
	cmd.Flags().StringVar(
		&bakeOutPath,
		"out",
		"",
		"Path of the baked document",
	)

	rootCmd.AddCommand(cmd)
}
