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

package methods

import (
	"fmt"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/models/requests"
	"github.com/ZaparooProject/prism-core/pkg/api/validation"
	"github.com/rs/zerolog/log"
)

// HandleIconsExtract always answers with a result; a failed chain is
// success=false, not an error.
//
//nolint:gocritic // single-use parameter in API handler
func HandleIconsExtract(env requests.RequestEnv) (any, error) {
	var params models.ExtractIconParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	log.Info().Str("path", params.Path).Msg("received icon extract request")

	res, err := env.Core.Icons().Extract(env.Context, params.Path)
	if err != nil {
		return nil, fmt.Errorf("icon extraction interrupted: %w", err)
	}
	return res, nil
}
