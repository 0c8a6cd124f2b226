// Prism Core
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Prism Core.
//
// Prism Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Prism Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.

package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error lists every parameter that failed validation. Field names are the
// JSON names clients send.
type Error struct {
	Fields []FieldError
}

type FieldError struct {
	Value   any
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	for i := range e.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Fields[i].Message)
	}
	if b.Len() == 0 {
		return "validation failed"
	}
	return b.String()
}

func NewError(errs validator.ValidationErrors) *Error {
	out := &Error{Fields: make([]FieldError, 0, len(errs))}
	for _, fe := range errs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	limit := fe.Param()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "abspath":
		return fmt.Sprintf("%s must be an absolute path, got %q", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(limit, " ", ", "))
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() { //nolint:exhaustive // numbers use the default
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", name, bound, limit)
		case reflect.Slice:
			return fmt.Sprintf("%s must have %s %s entries", name, bound, limit)
		default:
			return fmt.Sprintf("%s must be %s %s", name, bound, limit)
		}
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}
