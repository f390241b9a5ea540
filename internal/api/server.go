package api

// Server lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/iotgw/internal/audit"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/runtime"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Host    string
	Port    int64
	WSPath  string // default "/ws"
	Logger  *logging.Logger
	Engine  *runtime.Engine
	Audit   *audit.Store // optional: backs GET /api/audit/rule-firings
	Version string
	// Hub, if set, is used instead of creating a fresh one. Callers that
	// need the hub as the engine's runtime.Broadcaster before Start has
	// run (the common case: the engine is constructed with this same hub
	// as its Deps.Broadcaster) should build it with NewHub and pass it
	// here so both sides share one instance.
	Hub *Hub
}

// Server is the HTTP+WebSocket front end (C6). It owns the HTTP listener,
// routes, and WebSocket hub; all state-touching work is delegated to the
// *runtime.Engine.
type Server struct {
	host    string
	port    int64
	wsPath  string
	logger  *logging.Logger
	engine  *runtime.Engine
	audit   *audit.Store
	version string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server. The server is not started until Start is
// called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("api: logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("api: engine is required")
	}

	wsPath := deps.WSPath
	if wsPath == "" {
		wsPath = "/ws"
	}

	return &Server{
		host:    deps.Host,
		port:    deps.Port,
		wsPath:  wsPath,
		logger:  deps.Logger,
		engine:  deps.Engine,
		audit:   deps.Audit,
		version: deps.Version,
		hub:     deps.Hub,
	}, nil
}

// Hub returns the server's WebSocket hub, satisfying runtime.Broadcaster.
// Safe to call before Start; callers wire the returned hub into the
// engine's Deps.Broadcaster so the first broadcast has somewhere to go,
// or pass a hub they already built via Deps.Hub.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	return s.hub
}

// Start builds the router, starts the WebSocket hub, and begins listening
// in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http", "listen failed: "+err.Error())
		}
	}()

	s.logger.Info("http", fmt.Sprintf("listening on %s", s.server.Addr))
	return nil
}

// Close gracefully shuts down the server, waiting up to
// gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api: health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api: server not started")
	}
	return nil
}
