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

package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/prism-core/pkg/helpers"
	"github.com/go-playground/validator/v10"
)

const MaxTitleLength = 256

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		return helpers.IsAbsPath(fl.Field().String())
	})
	return v
}

func (s *Store) validateGame(g *Game) error {
	g.Title = strings.TrimSpace(g.Title)
	g.ExecutablePath = strings.TrimSpace(g.ExecutablePath)

	err := s.validate.Struct(g)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidGame, fieldName(fe.Field()))
	case "max":
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalidGame, MaxTitleLength)
	case "abspath":
		return fmt.Errorf("%w: executable path %q is not absolute", ErrInvalidGame, g.ExecutablePath)
	default:
		return fmt.Errorf("%w: %s failed %s", ErrInvalidGame, fieldName(fe.Field()), fe.Tag())
	}
}

func fieldName(f string) string {
	switch f {
	case "ExecutablePath":
		return "executable path"
	case "Title":
		return "title"
	default:
		return strings.ToLower(f)
	}
}
