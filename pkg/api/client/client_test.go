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

package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api"
	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/library"
	"github.com/ZaparooProject/prism-core/pkg/testing/fixtures"
	"github.com/ZaparooProject/prism-core/pkg/testing/helpers"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFor(t *testing.T, server *httptest.Server) *config.Instance {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := helpers.NewTestConfig(t)
	cfg.SetAPIPort(port)
	return cfg
}

func frame(t *testing.T, v map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// replyWith answers every request with the frames build returns for its id.
func replyWith(t *testing.T, build func(id any) []map[string]any) *helpers.WebSocketTestServer {
	t.Helper()
	return helpers.NewWebSocketTestServer(t, func(s *melody.Session, msg []byte) {
		var req map[string]any
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		for _, f := range build(req["id"]) {
			_ = s.Write(frame(t, f))
		}
	})
}

// pushOnConnect sends frames to each client as soon as it connects.
func pushOnConnect(t *testing.T, frames ...map[string]any) *helpers.WebSocketTestServer {
	t.Helper()
	server := helpers.NewWebSocketTestServer(t, nil)
	server.Melody.HandleConnect(func(s *melody.Session) {
		for _, f := range frames {
			_ = s.Write(frame(t, f))
		}
	})
	return server
}

func sessionEnded(gameID string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  models.NotificationSessionEnded,
		"params":  map[string]any{"gameId": gameID, "elapsedSeconds": 90},
	}
}

func TestLocalClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		build   func(id any) []map[string]any
		name    string
		params  string
		want    string
		wantErr string
	}{
		{
			name:   "result",
			params: `{"id":"hk"}`,
			build: func(id any) []map[string]any {
				return []map[string]any{{"jsonrpc": "2.0", "id": id, "result": map[string]any{"title": "Hollow Knight"}}}
			},
			want: `{"title":"Hollow Knight"}`,
		},
		{
			name: "null result",
			build: func(id any) []map[string]any {
				return []map[string]any{{"jsonrpc": "2.0", "id": id, "result": nil}}
			},
			want: "null",
		},
		{
			name: "skips other ids and versions",
			build: func(id any) []map[string]any {
				return []map[string]any{
					{"jsonrpc": "2.0", "id": "someone-else", "result": "wrong id"},
					{"jsonrpc": "1.0", "id": id, "result": "wrong version"},
					{"jsonrpc": "2.0", "id": id, "result": "ours"},
				}
			},
			want: `"ours"`,
		},
		{
			name: "error object",
			build: func(id any) []map[string]any {
				return []map[string]any{{"jsonrpc": "2.0", "id": id, "error": map[string]any{
					"code":    1,
					"message": "game not found: hk",
				}}}
			},
			wantErr: "game not found: hk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := replyWith(t, tt.build)
			defer server.Close()

			got, err := LocalClient(t.Context(), configFor(t, server.Server), models.MethodLibraryGet, tt.params)
			if tt.wantErr != "" {
				var rpcErr *RPCError
				require.ErrorAs(t, err, &rpcErr)
				assert.Equal(t, tt.wantErr, rpcErr.Message)
				assert.Equal(t, 1, rpcErr.Code)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestLocalClient_OmitsEmptyParams(t *testing.T) {
	t.Parallel()

	got := make(chan map[string]any, 1)
	server := helpers.NewWebSocketTestServer(t, func(s *melody.Session, msg []byte) {
		var req map[string]any
		_ = json.Unmarshal(msg, &req)
		got <- req
		_ = s.Write(frame(t, map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": "ok"}))
	})
	defer server.Close()

	_, err := LocalClient(t.Context(), configFor(t, server.Server), models.MethodLibraryStats, "")
	require.NoError(t, err)

	req := <-got
	assert.Equal(t, models.MethodLibraryStats, req["method"])
	assert.NotContains(t, req, "params")
	assert.IsType(t, "", req["id"])
}

func TestLocalClient_RejectsInvalidParams(t *testing.T) {
	t.Parallel()

	server := helpers.NewWebSocketTestServer(t, func(*melody.Session, []byte) {
		t.Error("invalid params must not be sent")
	})
	defer server.Close()

	_, err := LocalClient(t.Context(), configFor(t, server.Server), models.MethodLibraryGet, "{id:")
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestLocalClient_Cancelled(t *testing.T) {
	t.Parallel()

	// never answers
	server := helpers.NewWebSocketTestServer(t, nil)
	defer server.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err := LocalClient(ctx, configFor(t, server.Server), models.MethodSessions, "")
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestLocalClient_NoService(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig
	l, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := helpers.NewTestConfig(t)
	cfg.SetAPIPort(port)

	_, err = LocalClient(t.Context(), cfg, models.MethodSessions, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to service")
}

func TestWaitNotification(t *testing.T) {
	t.Parallel()

	server := pushOnConnect(t,
		map[string]any{"jsonrpc": "2.0", "method": models.NotificationLibraryChanged, "params": map[string]any{}},
		map[string]any{"jsonrpc": "2.0", "id": "req-1", "method": models.NotificationSessionEnded},
		sessionEnded("celeste"),
	)
	defer server.Close()

	got, err := WaitNotification(t.Context(), time.Second, configFor(t, server.Server), models.NotificationSessionEnded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gameId":"celeste","elapsedSeconds":90}`, got)
}

func TestWaitNotification_Timeout(t *testing.T) {
	t.Parallel()

	server := pushOnConnect(t)
	defer server.Close()

	_, err := WaitNotification(t.Context(), 100*time.Millisecond, configFor(t, server.Server), models.NotificationSessionEnded)
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestWaitNotification_Cancelled(t *testing.T) {
	t.Parallel()

	server := pushOnConnect(t)
	defer server.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err := WaitNotification(ctx, -1, configFor(t, server.Server), models.NotificationSessionEnded)
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestWaitNotifications_AnyOf(t *testing.T) {
	t.Parallel()

	server := pushOnConnect(t,
		map[string]any{"jsonrpc": "2.0", "method": "icons.progress", "params": map[string]any{}},
		map[string]any{
			"jsonrpc": "2.0",
			"method":  models.NotificationLibraryChanged,
			"params":  map[string]any{"action": "removed", "gameId": "hades"},
		},
	)
	defer server.Close()

	method, params, err := WaitNotifications(
		t.Context(),
		time.Second,
		configFor(t, server.Server),
		models.NotificationSessionEnded,
		models.NotificationLibraryChanged,
	)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationLibraryChanged, method)
	assert.JSONEq(t, `{"action":"removed","gameId":"hades"}`, params)
}

func TestLocalAPIClient(t *testing.T) {
	t.Parallel()

	server := replyWith(t, func(id any) []map[string]any {
		return []map[string]any{{"jsonrpc": "2.0", "id": id, "error": map[string]any{"code": 1, "message": "invalid params"}}}
	})
	defer server.Close()

	c := NewLocalAPIClient(configFor(t, server.Server))
	_, err := c.Call(t.Context(), models.MethodLibraryAdd, `{}`)
	require.Error(t, err)
	assert.Equal(t, "library.add: invalid params", err.Error())

	var rpcErr *RPCError
	assert.ErrorAs(t, err, &rpcErr)
}

func TestLocalAPIClient_WaitNotification(t *testing.T) {
	t.Parallel()

	server := pushOnConnect(t, sessionEnded("hades"))
	defer server.Close()

	c := NewLocalAPIClient(configFor(t, server.Server))
	got, err := c.WaitNotification(t.Context(), time.Second, models.NotificationSessionEnded)
	require.NoError(t, err)
	assert.Contains(t, got, "hades")

	_, err = c.WaitNotification(t.Context(), 50*time.Millisecond, models.NotificationLibraryChanged)
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestLocalClient_AgainstServer(t *testing.T) {
	t.Parallel()

	core := fixtures.NewCore(t)
	games := core.Seed(t, fixtures.Celeste())

	cfg := helpers.NewTestConfig(t)
	cfg.SetAPIPort(0)
	srv := api.NewServer(cfg, core, nil)
	require.NoError(t, srv.Start(t.Context()))
	t.Cleanup(func() {
		assert.NoError(t, srv.Stop())
	})

	_, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg.SetAPIPort(port)

	result, err := LocalClient(t.Context(), cfg, models.MethodLibraryGet, `{"id":"`+games[0].ID+`"}`)
	require.NoError(t, err)

	var g library.Game
	require.NoError(t, json.Unmarshal([]byte(result), &g))
	assert.Equal(t, "Celeste", g.Title)

	_, err = LocalClient(t.Context(), cfg, models.MethodLibraryGet, `{"id":"missing"}`)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Contains(t, rpcErr.Message, "missing")
}
