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

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

var ErrInvalidRPCID = errors.New("JSON-RPC ID cannot be an object or array")

// RPCID holds a request id as the raw JSON the client sent, so a reply
// echoes it byte for byte. A nil *RPCID is an absent id.
type RPCID struct {
	raw []byte
}

var NullRPCID = RPCID{raw: []byte("null")}

func NewStringID(s string) RPCID {
	b, _ := json.Marshal(s)
	return RPCID{raw: b}
}

func NewNumberID(n int64) RPCID {
	return RPCID{raw: strconv.AppendInt(nil, n, 10)}
}

func (id *RPCID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return ErrInvalidRPCID
	}
	id.raw = bytes.Clone(data)
	return nil
}

func (id RPCID) MarshalJSON() ([]byte, error) {
	if len(id.raw) == 0 {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// IsAbsent reports a missing id, which makes the request a notification.
func (id *RPCID) IsAbsent() bool {
	return id == nil || len(id.raw) == 0
}

func (id *RPCID) IsNull() bool {
	return id != nil && string(id.raw) == "null"
}

func (id *RPCID) Equal(other RPCID) bool {
	if id.IsAbsent() {
		return len(other.raw) == 0
	}
	return bytes.Equal(id.raw, other.raw)
}

func (id *RPCID) String() string {
	if id.IsAbsent() {
		return "null"
	}
	return string(id.raw)
}
