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

package types_test

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quire-team/quire/api/types"
)

type paint struct {
	Color string  `validate:"required,hexcolor"`
	Alpha float64 `validate:"gte=0,lte=1"`
	Shade string  `validate:"omitempty,shade"`
}

func init() {
	types.RegisterValidation("shade", func(level validator.FieldLevel) bool {
		return strings.HasSuffix(level.Field().String(), "ish")
	})
	types.RegisterTranslation("shade", "{0} must end in ish")
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct test", func(t *testing.T) {
		assert.NoError(t, types.ValidateStruct(paint{Color: "#fff", Alpha: 0.5}))
	})

	t.Run("translated violations test", func(t *testing.T) {
		err := types.ValidateStruct(paint{Color: "blue", Alpha: 2})
		require.Error(t, err)

		var structErr *types.StructError
		require.ErrorAs(t, err, &structErr)
		require.Len(t, structErr.Violations, 2)
		assert.Equal(t, "hexcolor", structErr.Violations[0].Tag)
		assert.Equal(t, "Color must be a valid HEX color", structErr.Violations[0].Description)
		assert.Equal(t, "Alpha must be 1 or less", structErr.Violations[1].Description)
		assert.Equal(t, "Color must be a valid HEX color; Alpha must be 1 or less", err.Error())
		assert.Equal(t, map[string]string{
			"Color": "Color must be a valid HEX color",
			"Alpha": "Alpha must be 1 or less",
		}, structErr.Fields())
	})

	t.Run("custom tag translation test", func(t *testing.T) {
		err := types.ValidateStruct(paint{Color: "#000", Shade: "grey"})
		assert.EqualError(t, err, "Shade must end in ish")
		assert.NoError(t, types.ValidateStruct(paint{Color: "#000", Shade: "greyish"}))
	})

	t.Run("violation unwraps to the validator error test", func(t *testing.T) {
		err := types.ValidateStruct(paint{})
		var fieldErr validator.FieldError
		assert.ErrorAs(t, err, &fieldErr)
	})
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, types.ValidateVar("report.pdf", "required,max=255"))

	err := types.ValidateVar("", "required,max=255")
	var violation types.Violation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "required", violation.Tag)
	assert.Equal(t, "is a required field", err.Error())
}
