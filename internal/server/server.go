// Package server exposes the message pipeline over HTTP and WebSocket so a
// browser extension shell can drive it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/otel"
	"github.com/abelbrown/contextrt/internal/pipeline"
)

const maxBodySize = 1 << 20

// MessageHandler answers inbound messages. *pipeline.Service implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg pipeline.Message) pipeline.Response
}

// Server routes HTTP and WebSocket traffic to a MessageHandler.
type Server struct {
	handler  MessageHandler
	events   *otel.Logger
	upgrader websocket.Upgrader
	origins  []string

	mu    sync.RWMutex
	conns map[string]*wsConn
}

// Option customizes a Server.
type Option func(*Server)

// WithEvents records inbound traffic to l.
func WithEvents(l *otel.Logger) Option {
	return func(s *Server) {
		s.events = l
	}
}

// New creates a Server.
func New(h MessageHandler, opts ...Option) *Server {
	s := &Server{
		handler: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		conns: make(map[string]*wsConn),
	}
	s.upgrader.CheckOrigin = s.originAllowed
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/message", s.handleMessage)
	mux.HandleFunc("GET /v1/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAll()
		return srv.Shutdown(shutdownCtx)
	}
}

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.Connections(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if !s.originAllowed(r) {
		writeJSON(w, http.StatusForbidden, pipeline.Response{Error: "origin not allowed"})
		return
	}
	if !isJSON(r) {
		writeJSON(w, http.StatusUnsupportedMediaType, pipeline.Response{Error: "content type must be application/json"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var msg pipeline.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, pipeline.Response{Error: "invalid message: " + err.Error()})
		return
	}
	s.trace(msg.Type, "http")

	resp := s.handler.Handle(r.Context(), msg)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) trace(t pipeline.MessageType, via string) {
	if s.events == nil || !otel.TraceEnabled() {
		return
	}
	s.events.Emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindMsgReceived,
		Comp:  "server",
		Msg:   string(t),
		Extra: map[string]any{"via": via},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("write response", "err", err)
	}
}
