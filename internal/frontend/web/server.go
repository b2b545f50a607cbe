// Package web serves the game over WebSocket and exposes read-only HTTP
// endpoints for health and session inspection.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cory-johannsen/treasurehunt/internal/config"
	"github.com/cory-johannsen/treasurehunt/internal/game/hunt"
	"github.com/cory-johannsen/treasurehunt/internal/gateway"
)

// Snapshotter lists the sessions currently held.
type Snapshotter interface {
	Snapshot() []hunt.Snapshot
}

// OutboundMessage is the JSON frame sent for every game event.
type OutboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// SessionsResponse is the body of GET /sessions.
type SessionsResponse struct {
	Connections int             `json:"connections"`
	Sessions    []hunt.Snapshot `json:"sessions"`
}

// Server is the HTTP and WebSocket transport.
type Server struct {
	cfg        config.WebConfig
	dispatcher *gateway.Dispatcher
	sessions   Snapshotter
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup

	mu  sync.Mutex
	srv *http.Server
}

// NewServer creates a Server.
//
// Precondition: dispatcher, sessions, and logger must be non-nil.
func NewServer(cfg config.WebConfig, dispatcher *gateway.Dispatcher, sessions Snapshotter, logger *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(s.cfg.Path, s.handleSocket).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	return r
}

// ListenAndServe listens on cfg.Addr() and serves until Stop.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves HTTP on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	s.logger.Info("web server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", s.cfg.Path),
	)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Stop closes every WebSocket and shuts the HTTP server down.
func (s *Server) Stop() {
	s.cancel()
	s.conns.Wait()

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("web shutdown", zap.Error(err))
		}
	}
	s.logger.Info("web server stopped")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	resp := SessionsResponse{
		Connections: s.dispatcher.Hub().ConnectionCount(),
		Sessions:    s.sessions.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("encoding sessions", zap.Error(err))
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Debug("websocket accept", zap.Error(err))
		return
	}
	s.conns.Add(1)
	defer s.conns.Done()
	c.SetReadLimit(s.cfg.ReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	id, ent, err := s.dispatcher.Connect(ctx)
	if err != nil {
		s.logger.Warn("websocket connect", zap.Error(err))
		_ = c.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	log := s.logger.With(zap.String("conn", id), zap.String("remote_addr", r.RemoteAddr))
	log.Info("websocket connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for evt := range ent.Events() {
			if broken {
				continue
			}
			if err := wsjson.Write(ctx, c, OutboundMessage{Event: evt.Name, Data: evt.Payload}); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				broken = true
			}
		}
	}()

	err = s.readLoop(ctx, id, c)
	cancel()
	s.dispatcher.Disconnect(id)
	<-writerDone

	status := websocket.CloseStatus(err)
	log.Info("websocket disconnected", zap.Int("status", int(status)))
	_ = c.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readLoop(ctx context.Context, id string, c *websocket.Conn) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			_ = s.dispatcher.Reject(id, fmt.Errorf("%w: binary frame", gateway.ErrMalformedIntent))
			continue
		}
		in, err := gateway.DecodeIntent(data)
		if err != nil {
			_ = s.dispatcher.Reject(id, err)
			continue
		}
		if err := s.dispatcher.Handle(id, in); err != nil {
			s.logger.Debug("intent failed", zap.String("conn", id), zap.Error(err))
		}
	}
}
