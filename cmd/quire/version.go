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
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/internal/version"
)

var output string

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Quire",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Validate(); err != nil {
				return err
			}

			detail := &types.VersionDetail{
				QuireVersion: version.Version,
				GoVersion:    runtime.Version(),
				BuildDate:    version.BuildDate,
			}

			switch output {
			case "":
				cmd.Printf("Quire: %s\n", detail.QuireVersion)
				cmd.Printf("Go: %s\n", detail.GoVersion)
				cmd.Printf("Build Date: %s\n", detail.BuildDate)
			case "yaml":
				marshalled, err := yaml.Marshal(detail)
				if err != nil {
					return errors.New("failed to marshal YAML")
				}
				cmd.Println(string(marshalled))
			case "json":
				marshalled, err := json.MarshalIndent(detail, "", "  ")
				if err != nil {
					return errors.New("failed to marshal JSON")
				}
				cmd.Println(string(marshalled))
			}

			return nil
		},
	}
}

// Validate validates the provided options.
func Validate() error {
	if output != "" && output != "yaml" && output != "json" {
		return fmt.Errorf(`--output must be 'yaml' or 'json', given %q`, output)
	}

	return nil
}

func init() {
	cmd := newVersionCmd()
	cmd.Flags().StringVarP(
		&output,
		"output",
		"o",
		output,
		"One of 'yaml' or 'json'.",
	)

	rootCmd.AddCommand(cmd)
}
