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

// Package models holds the JSON-RPC envelope types, method names and
// payloads of the Prism API.
package models

import "encoding/json"

const (
	NotificationSessionStarted = "session.started"
	NotificationSessionEnded   = "session.ended"
	NotificationLibraryChanged = "library.changed"
)

const (
	MethodLaunch          = "launch"
	MethodSessionStatus   = "session.status"
	MethodSessions        = "sessions"
	MethodSessionsHistory = "sessions.history"
	MethodIconsExtract    = "icons.extract"
	MethodLibrary         = "library"
	MethodLibraryGet      = "library.get"
	MethodLibraryAdd      = "library.add"
	MethodLibraryUpdate   = "library.update"
	MethodLibraryRemove   = "library.remove"
	MethodLibraryFavorite = "library.favorite"
	MethodLibrarySearch   = "library.search"
	MethodLibraryStats    = "library.stats"
	MethodLibraryScan     = "library.scan"
	MethodSettings        = "settings"
	MethodVersion         = "version"
)

type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	ID      *RPCID          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject is the error reply. It has no result field at all,
// while ResponseObject always writes one, null included.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}
