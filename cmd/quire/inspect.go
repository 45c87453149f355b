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
	"gopkg.in/yaml.v3"

	"github.com/quire-team/quire/pkg/pdfops"
)

var inspectOutput string

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [pdf]",
		Short: "Print the page count and page sizes of a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("document path is required")
			}

			doc, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			info, err := pdfops.Inspect(doc)
			if err != nil {
				return err
			}

			return printInfo(cmd, inspectOutput, info)
		},
	}
}

func printInfo(cmd *cobra.Command, output string, info *pdfops.Info) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"PAGE",
			"WIDTH",
			"HEIGHT",
		})
		for i, page := range info.Pages {
			tw.AppendRow(table.Row{
				i + 1,
				fmt.Sprintf("%.2f", page.Width),
				fmt.Sprintf("%.2f", page.Height),
			})
		}
		tw.AppendFooter(table.Row{"TOTAL", info.PageCount, ""})
		cmd.Printf("%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func init() {
	cmd := newInspectCmd()
	cmd.Flags().StringVarP(
		&inspectOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)

	rootCmd.AddCommand(cmd)
}
