/*
Prism Core
Copyright (c) 2026 The Zaparoo Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Prism Core.

Prism Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Prism Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Prism Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package api serves the JSON-RPC 2.0 WebSocket API that UI collaborators
// use to drive the core, plus the Prometheus endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/prism-core/pkg/api/methods"
	apimiddleware "github.com/ZaparooProject/prism-core/pkg/api/middleware"
	"github.com/ZaparooProject/prism-core/pkg/api/models"
	"github.com/ZaparooProject/prism-core/pkg/api/models/requests"
	"github.com/ZaparooProject/prism-core/pkg/api/validation"
	"github.com/ZaparooProject/prism-core/pkg/config"
	"github.com/ZaparooProject/prism-core/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	APIPath         = "/api"
	MetricsPath     = "/metrics"
	shutdownTimeout = 5 * time.Second
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

// DefaultAllowedOrigins are the browser origins accepted without any
// configuration: the desktop shell and local dev servers.
var DefaultAllowedOrigins = []string{
	"app://*",
	"file://*",
	"http://localhost:*",
	"http://127.0.0.1:*",
}

var methodMap = map[string]func(requests.RequestEnv) (any, error){
	// sessions
	models.MethodLaunch:          methods.HandleLaunch,
	models.MethodSessionStatus:   methods.HandleSessionStatus,
	models.MethodSessions:        methods.HandleSessions,
	models.MethodSessionsHistory: methods.HandleSessionsHistory,
	// icons
	models.MethodIconsExtract: methods.HandleIconsExtract,
	// library
	models.MethodLibrary:         methods.HandleLibrary,
	models.MethodLibraryGet:      methods.HandleLibraryGet,
	models.MethodLibraryAdd:      methods.HandleLibraryAdd,
	models.MethodLibraryUpdate:   methods.HandleLibraryUpdate,
	models.MethodLibraryRemove:   methods.HandleLibraryRemove,
	models.MethodLibraryFavorite: methods.HandleLibraryFavorite,
	models.MethodLibrarySearch:   methods.HandleLibrarySearch,
	models.MethodLibraryStats:    methods.HandleLibraryStats,
	models.MethodLibraryScan:     methods.HandleLibraryScan,
	// settings
	models.MethodSettings: methods.HandleSettings,
	// utils
	models.MethodVersion: methods.HandleVersion,
}

type Server struct {
	ctx           context.Context
	cfg           *config.Instance
	core          requests.Core
	notifications <-chan models.Notification
	melody        *melody.Melody
	limiter       *apimiddleware.Limiter
	srv           *http.Server
	listener      net.Listener
	cancel        context.CancelFunc
	cleanupDone   <-chan struct{}
	wg            sync.WaitGroup
}

// NewServer builds the router. notifications may be nil when nothing
// should be pushed to clients.
func NewServer(
	cfg *config.Instance,
	core requests.Core,
	notifications <-chan models.Notification,
) *Server {
	s := &Server{
		ctx:           context.Background(),
		cfg:           cfg,
		core:          core,
		notifications: notifications,
		melody:        melody.New(),
		limiter:       apimiddleware.NewLimiter(nil, apimiddleware.DefaultLimits),
	}

	origins := append(append([]string{}, DefaultAllowedOrigins...), cfg.AllowedOrigins()...)
	s.melody.Upgrader.CheckOrigin = func(r *http.Request) bool {
		return originAllowed(r.Header.Get("Origin"), origins)
	}
	s.melody.HandleMessage(apimiddleware.WebSocket(s.limiter, s.handleWSMessage))
	s.melody.HandleDisconnect(func(session *melody.Session) {
		s.limiter.Forget(session.Request.RemoteAddr)
	})

	return s
}

// originAllowed accepts requests without an Origin header (non-browser
// clients such as the CLI) and origins matching one of the patterns. A
// pattern may contain a single "*".
func originAllowed(origin string, patterns []string) bool {
	if origin == "" {
		return true
	}
	origin = strings.ToLower(origin)
	for _, p := range patterns {
		p = strings.ToLower(p)
		prefix, suffix, wild := strings.Cut(p, "*")
		if !wild {
			if origin == p {
				return true
			}
			continue
		}
		if len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) &&
			strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append(append([]string{}, DefaultAllowedOrigins...), s.cfg.AllowedOrigins()...),
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
		ExposedHeaders: []string{},
	}))

	r.Get(APIPath, func(w http.ResponseWriter, r *http.Request) {
		err := s.melody.HandleRequest(w, r)
		if err != nil {
			log.Error().Err(err).Msg("api: handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(config.APIRequestTimeout))
		r.Use(apimiddleware.HTTP(s.limiter))
		r.Handle(MetricsPath, metrics.Handler())
	})

	return r
}

// Start listens on the loopback interface and serves until Stop. The
// configured port may be 0 to pick a free one; see Addr.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.cfg.APIPort()))
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.cleanupDone = s.limiter.Run(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("api: http server stopped")
		}
	}()

	if s.notifications != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.broadcastNotifications()
		}()
	}

	log.Info().Str("addr", listener.Addr().String()).Msg("api: listening")
	return nil
}

// Addr is the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	s.cancel()
	if err := s.melody.Close(); err != nil {
		log.Debug().Err(err).Msg("api: closing websocket sessions")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(ctx)

	s.wg.Wait()
	<-s.cleanupDone
	s.srv = nil

	if err != nil {
		return fmt.Errorf("failed to shut down api server: %w", err)
	}
	log.Info().Msg("api: stopped")
	return nil
}

func (s *Server) broadcastNotifications() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case notif, ok := <-s.notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("api: marshalling notification")
				continue
			}
			if err := s.melody.Broadcast(data); err != nil {
				log.Debug().Err(err).Msg("api: broadcasting notification")
			}
		}
	}
}

func (s *Server) handleRequest(env requests.RequestEnv, req models.RequestObject) (any, error) {
	env.Params = req.Params
	return HandleMethod(env, req.Method)
}

// ErrMethodNotFound is returned by HandleMethod for unknown method names.
var ErrMethodNotFound = errors.New("method not found")

// HandleMethod runs a single API method in-process, without a WebSocket
// round trip. Method names are case-insensitive.
//
//nolint:gocritic // env is passed through to the handler
func HandleMethod(env requests.RequestEnv, method string) (any, error) {
	fn, ok := methodMap[strings.ToLower(method)]
	if !ok {
		return nil, ErrMethodNotFound
	}
	return fn(env)
}

// errorObject maps a handler error to a JSON-RPC error. Parameter problems
// are Invalid params; everything else is a server error carrying the
// handler's message.
func errorObject(err error) models.ErrorObject {
	var ve *validation.Error
	switch {
	case errors.Is(err, ErrMethodNotFound):
		return JSONRPCErrorMethodNotFound
	case errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.As(err, &ve):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
	}
}

func sendResponse(session *melody.Session, id models.RPCID, result any) error {
	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
	if err != nil {
		return fmt.Errorf("error marshalling response: %w", err)
	}
	return session.Write(data) //nolint:wrapcheck // melody errors are descriptive
}

func sendError(session *melody.Session, id models.RPCID, errObj models.ErrorObject) error {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("api: sending error")

	data, err := json.Marshal(models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	})
	if err != nil {
		return fmt.Errorf("error marshalling error response: %w", err)
	}
	return session.Write(data) //nolint:wrapcheck // melody errors are descriptive
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("api: sending pong")
		}
		return
	}

	if !json.Valid(msg) {
		if err := sendError(session, models.NullRPCID, JSONRPCErrorParseError); err != nil {
			log.Error().Err(err).Msg("api: sending error response")
		}
		return
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil || req.JSONRPC != "2.0" || req.Method == "" {
		id := models.NullRPCID
		if err == nil && !req.ID.IsAbsent() {
			id = *req.ID
		}
		if err := sendError(session, id, JSONRPCErrorInvalidRequest); err != nil {
			log.Error().Err(err).Msg("api: sending error response")
		}
		return
	}

	if req.ID.IsAbsent() {
		log.Debug().Str("method", req.Method).Msg("api: received notification, ignoring")
		return
	}

	log.Debug().Str("method", req.Method).Str("id", req.ID.String()).Msg("api: received request")
	resp, err := s.handleRequest(requests.RequestEnv{
		Context: s.ctx,
		Config:  s.cfg,
		Core:    s.core,
		ID:      *req.ID,
		IsLocal: apimiddleware.IsLoopbackAddr(session.Request.RemoteAddr),
	}, req)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("api: request failed")
		if err := sendError(session, *req.ID, errorObject(err)); err != nil {
			log.Error().Err(err).Msg("api: sending error response")
		}
		return
	}

	if err := sendResponse(session, *req.ID, resp); err != nil {
		log.Error().Err(err).Msg("api: sending response")
	}
}
