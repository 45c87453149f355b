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

package rpc

import (
	"github.com/go-playground/validator/v10"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/pkg/pdfops"
)

func init() {
	types.RegisterValidation("page_selection", func(level validator.FieldLevel) bool {
		return pdfops.ValidSelection(level.Field().String())
	})
	types.RegisterTranslation("page_selection", "{0} must be a page selection such as 1-3 or even")
}
