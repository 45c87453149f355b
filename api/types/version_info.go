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


package types

// VersionDetail represents detail information of version.
type VersionDetail struct {
	// QuireVersion is the version of the Quire binary.
	QuireVersion string `json:"quireVersion" yaml:"quireVersion"`

	// GoVersion is the Go runtime the binary was built with.
	GoVersion string `json:"goVersion" yaml:"goVersion"`

	// BuildDate is the date the binary was built.
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}
