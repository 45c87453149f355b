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
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	defaultValidator = initValidator()

	// defaultEn is the translator for the 'en' locale. It is also the
	// fallback locale.
	defaultEn = en.New()
	uni       = ut.New(defaultEn, defaultEn)
	trans, _  = uni.GetTranslator(defaultEn.Locale())
)

// initValidator creates a new instance of 'validate'.
func initValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Violation is one rule a value failed.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

// Error returns the translated description of the violation.
func (v Violation) Error() string {
	return v.Description
}

// Unwrap returns the underlying validator error.
func (v Violation) Unwrap() error {
	return v.Err
}

// StructError is returned when a struct fails validation.
type StructError struct {
	Violations []Violation
}

// Error joins the descriptions of every violation.
func (s *StructError) Error() string {
	descriptions := make([]string, len(s.Violations))
	for i, v := range s.Violations {
		descriptions[i] = v.Error()
	}
	return strings.Join(descriptions, "; ")
}

// Unwrap returns the violations so that errors.As can reach them.
func (s *StructError) Unwrap() []error {
	errs := make([]error, len(s.Violations))
	for i, v := range s.Violations {
		errs[i] = v
	}
	return errs
}

// Fields returns the description of each violation keyed by its field.
func (s *StructError) Fields() map[string]string {
	fields := make(map[string]string, len(s.Violations))
	for _, v := range s.Violations {
		fields[v.Field] = v.Description
	}
	return fields
}

// RegisterValidation is a shortcut of defaultValidator.RegisterValidation
// that registers a custom validation with the given tag. It is meant to be
// called from init functions.
func RegisterValidation(tag string, fn validator.Func) {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// RegisterTranslation registers the message of the given tag. {0} in msg is
// replaced by the field name. It is meant to be called from init functions.
func RegisterTranslation(tag, msg string) {
	if err := defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	); err != nil {
		panic(fmt.Errorf("register translation %s: %w", tag, err))
	}
}

// ValidateStruct validates the struct tags of s. A failed rule is returned as
// a *StructError with translated descriptions.
func ValidateStruct(s any) error {
	err := defaultValidator.Struct(s)
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	structError := &StructError{}
	for _, e := range errs {
		structError.Violations = append(structError.Violations, Violation{
			Tag:         e.Tag(),
			Field:       e.Field(),
			Err:         e,
			Description: e.Translate(trans),
		})
	}
	return structError
}

// ValidateVar validates a single value against the tag. The first failed
// rule is returned as a Violation.
func ValidateVar(field any, tag string) error {
	err := defaultValidator.Var(field, tag)
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}

	e := errs[0]
	return Violation{
		Tag:         e.Tag(),
		Err:         e,
		Description: strings.TrimSpace(e.Translate(trans)),
	}
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		panic(fmt.Errorf("register default translations: %w", err))
	}
}
