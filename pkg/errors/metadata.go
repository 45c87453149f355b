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

package errors

import (
	"errors"
	"maps"
)

// MetadataError represents an error with additional key-value context, such
// as the annotation and page a bake failure belongs to.
type MetadataError struct {
	err      error
	metadata map[string]string
}

// Error returns the error message.
func (e MetadataError) Error() string {
	return e.err.Error()
}

// Status returns the error code from the underlying error.
func (e MetadataError) Status() StatusCode {
	return StatusOf(e.err)
}

// Unwrap returns the underlying error.
func (e MetadataError) Unwrap() error {
	return e.err
}

// Metadata returns a copy of the metadata associated with the error.
func (e MetadataError) Metadata() map[string]string {
	return maps.Clone(e.metadata)
}

// WithMetadata wraps an error with additional metadata. Metadata already
// attached to err is merged, the given values win.
func WithMetadata(err error, metadata map[string]string) error {
	if err == nil {
		return nil
	}
	if len(metadata) == 0 {
		return err
	}

	merged := make(map[string]string, len(metadata))
	var metaErr MetadataError
	if errors.As(err, &metaErr) {
		maps.Copy(merged, metaErr.metadata)
	}
	if direct, ok := err.(MetadataError); ok {
		err = direct.err
	}
	maps.Copy(merged, metadata)

	return MetadataError{
		err:      err,
		metadata: merged,
	}
}

// Metadata extracts metadata from an error chain. It returns nil if the error
// doesn't have metadata.
func Metadata(err error) map[string]string {
	var metaErr MetadataError
	if errors.As(err, &metaErr) {
		return metaErr.Metadata()
	}
	return nil
}
