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

// Package client talks to a running service over its local WebSocket API.
// The CLI uses it when another process already holds the service lock.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const APIPath = "/api"

// RPCError is an error object returned by the service. Its message is the
// service side error text, shown to users as is.
type RPCError struct {
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return e.Message
}

type rpcReply struct {
	Error   *models.ErrorObject `json:"error"`
	JSONRPC string              `json:"jsonrpc"`
	Result  json.RawMessage     `json:"result"`
	ID      models.RPCID        `json:"id"`
}

func localURL(cfg *config.Instance) string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.APIPort())),
		Path:   APIPath,
	}
	return u.String()
}

func dial(ctx context.Context, cfg *config.Instance) (*websocket.Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, localURL(cfg), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("client: error closing websocket")
	}
}

// readUntil reads frames until accept takes one. Zero timeout means the
// API request timeout, negative means wait on ctx alone. Closing the
// connection is how a pending read is interrupted.
func readUntil(ctx context.Context, c *websocket.Conn, timeout time.Duration, accept func([]byte) bool) error {
	matched := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("client: read loop ended")
				return
			}
			if accept(msg) {
				close(matched)
				return
			}
		}
	}()

	if timeout == 0 {
		timeout = config.APIRequestTimeout
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
	case <-expired:
		closeConn(c)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		<-done
		return ErrRequestCancelled
	}

	select {
	case <-matched:
		return nil
	default:
		// connection dropped before an answer
		return ErrRequestTimeout
	}
}

// LocalClient sends one method call to the service on this machine and
// returns the raw JSON result.
func LocalClient(
	ctx context.Context,
	cfg *config.Instance,
	method string,
	params string,
) (string, error) {
	id := models.NewStringID(uuid.NewString())
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	var reply rpcReply
	err = readUntil(ctx, c, 0, func(msg []byte) bool {
		var r rpcReply
		if json.Unmarshal(msg, &r) != nil || r.JSONRPC != "2.0" || !id.Equal(r.ID) {
			return false
		}
		reply = r
		return true
	})
	if err != nil {
		return "", err
	}

	if reply.Error != nil {
		return "", &RPCError{Code: reply.Error.Code, Message: reply.Error.Message}
	}
	if len(reply.Result) == 0 {
		return "null", nil
	}
	return string(reply.Result), nil
}

// WaitNotification blocks until the service pushes a notification with the
// given method and returns its params. A zero timeout uses the API request
// timeout and a negative one waits until ctx ends.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	_, params, err := WaitNotifications(ctx, timeout, cfg, method)
	return params, err
}

// WaitNotifications is WaitNotification for any of several methods. It
// returns which method arrived along with its params.
func WaitNotifications(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	methods ...string,
) (method, params string, err error) {
	c, err := dial(ctx, cfg)
	if err != nil {
		return "", "", err
	}
	defer closeConn(c)

	var notif models.RequestObject
	err = readUntil(ctx, c, timeout, func(msg []byte) bool {
		var m models.RequestObject
		if json.Unmarshal(msg, &m) != nil {
			return false
		}
		// requests carry an id, notifications never do
		if m.JSONRPC != "2.0" || !m.ID.IsAbsent() || !slices.Contains(methods, m.Method) {
			return false
		}
		notif = m
		return true
	})
	if err != nil {
		return "", "", err
	}

	if len(notif.Params) == 0 {
		return notif.Method, "null", nil
	}
	return notif.Method, string(notif.Params), nil
}
