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

import (
	"errors"
	"fmt"
)

// OperationKind is the kind of a mutating operation recorded in history.
type OperationKind string

// Below are the kinds of operations that produce a snapshot.
const (
	OperationUpload    OperationKind = "upload"
	OperationBake      OperationKind = "bake"
	OperationRotate    OperationKind = "rotate"
	OperationDelete    OperationKind = "delete"
	OperationMerge     OperationKind = "merge"
	OperationWatermark OperationKind = "watermark"
	OperationCompress  OperationKind = "compress"
	OperationSplit     OperationKind = "split"
)

// ErrUnknownOperationKind is returned when the kind is not one of the known
// operation kinds.
var ErrUnknownOperationKind = errors.New("unknown operation kind")

var operationKinds = map[OperationKind]struct{}{
	OperationUpload:    {},
	OperationBake:      {},
	OperationRotate:    {},
	OperationDelete:    {},
	OperationMerge:     {},
	OperationWatermark: {},
	OperationCompress:  {},
	OperationSplit:     {},
}

// Validate returns an error if the kind is unknown.
func (k OperationKind) Validate() error {
	if _, ok := operationKinds[k]; !ok {
		return fmt.Errorf("%q: %w", k, ErrUnknownOperationKind)
	}
	return nil
}

// String returns the string representation of the kind.
func (k OperationKind) String() string {
	return string(k)
}
