package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/mac-cappy/internal/capture"
	apperrors "github.com/GriffinCanCode/mac-cappy/internal/errors"
	"github.com/GriffinCanCode/mac-cappy/internal/trace"
)

// Scheduler is the part of capture.Scheduler the control API drives.
type Scheduler interface {
	Status() capture.Status
	Subscribe() <-chan struct{}
	Do(ctx context.Context, a capture.Action) error
}

// StatusMessage is the JSON form of capture.Status.
type StatusMessage struct {
	Type           string `json:"type"`
	Enabled        bool   `json:"enabled"`
	IdleSkips      int    `json:"idle_skips"`
	ManualCaptures int    `json:"manual_captures"`
	LastCapture    string `json:"last_capture,omitempty"`
	LastSkip       string `json:"last_skip,omitempty"`
	LastError      string `json:"last_error,omitempty"`
	Title          string `json:"title"`
	Monitors       int    `json:"monitors"`
}

// CommandMessage is sent by WebSocket clients.
type CommandMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type ResultMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// actions maps API names onto scheduler actions. Note prompts are left to the
// menu bar and hotkey, which own a dialog surface.
var actions = map[string]capture.Action{
	"toggle":  capture.ActionToggle,
	"enable":  capture.ActionEnable,
	"disable": capture.ActionDisable,
	"capture": capture.ActionManualCapture,
}

func newStatusMessage(s capture.Status) StatusMessage {
	msg := StatusMessage{
		Type:           "status",
		Enabled:        s.Enabled,
		IdleSkips:      s.IdleSkips,
		ManualCaptures: s.ManualCaptures,
		LastError:      s.LastError,
		Title:          s.Title,
		Monitors:       s.Monitors,
	}
	if !s.LastCapture.IsZero() {
		msg.LastCapture = s.LastCapture.Format(time.RFC3339)
	}
	if !s.LastSkip.IsZero() {
		msg.LastSkip = s.LastSkip.Format(time.RFC3339)
	}
	return msg
}

// rateLimiter tracks command timestamps in a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
	now        func() time.Time
}

func newRateLimiter() *rateLimiter { return &rateLimiter{now: time.Now} }

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}
	r.timestamps = append(r.timestamps, now)
	return true
}

// Server serves the control API and pushes status changes to WebSocket clients.
type Server struct {
	sched Scheduler
	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
}

// New creates a server over sched.
func New(sched Scheduler) *Server {
	return &Server{
		sched: sched,
		conns: make(map[*websocket.Conn]*rateLimiter),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/capture", s.handleAction("capture"))
	mux.HandleFunc("POST /api/auto/{action}", s.handleAuto)

	return trace.Middleware(mux)
}

// ListenAndServe serves on addr until ctx is done, broadcasting status
// changes to connected clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeInternal, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.broadcastStatus(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("control server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatusMessage(s.sched.Status()))
}

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("action")
	if name == "capture" {
		writeJSON(w, http.StatusNotFound, ErrorMessage{Type: "error", Message: "unknown action " + name})
		return
	}
	s.handleAction(name)(w, r)
}

func (s *Server) handleAction(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, ok := actions[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorMessage{Type: "error", Message: "unknown action " + name})
			return
		}
		if err := s.sched.Do(r.Context(), action); err != nil {
			trace.Logger(r.Context()).Warn("action failed", "action", action, "error", err)
			writeJSON(w, http.StatusInternalServerError, ResultMessage{Type: "result", Action: name, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, newStatusMessage(s.sched.Status()))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = newRateLimiter()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	if err := s.write(ctx, conn, newStatusMessage(s.sched.Status())); err != nil {
		return
	}

	for {
		var msg CommandMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.conns[conn]
		s.mu.RUnlock()
		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		if msg.Type != "action" {
			_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: "unknown message type " + msg.Type})
			continue
		}
		action, ok := actions[msg.Action]
		if !ok {
			_ = s.write(ctx, conn, ErrorMessage{Type: "error", Message: "unknown action " + msg.Action})
			continue
		}

		res := ResultMessage{Type: "result", Action: msg.Action}
		if err := s.sched.Do(ctx, action); err != nil {
			res.Error = err.Error()
		}
		if err := s.write(ctx, conn, res); err != nil {
			return
		}
	}
}

// broadcastStatus pushes the latest status to every client after each change.
func (s *Server) broadcastStatus(ctx context.Context) {
	updates := s.sched.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
		}
		msg := newStatusMessage(s.sched.Status())

		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn) {
				_ = s.write(ctx, c, msg)
			}(conn)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
