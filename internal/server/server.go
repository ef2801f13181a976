// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todo-api/internal/config"
	"github.com/vyrodovalexey/todo-api/internal/handler"
	"github.com/vyrodovalexey/todo-api/internal/middleware"
	"github.com/vyrodovalexey/todo-api/internal/model"
	"github.com/vyrodovalexey/todo-api/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     *config.Config
	logger     *zap.Logger
	events     *handler.EventHub
}

// New creates a Server exposing todos over REST and websocket.
func New[K model.ID](cfg *config.Config, logger *zap.Logger, todos *store.TodoStore[K]) *Server {
	s := &Server{
		router: mux.NewRouter(),
		config: cfg,
		logger: logger,
		events: handler.NewEventHub(logger),
	}

	s.setupMiddleware()

	todos.PublishTo(s.events)
	handler.NewTodoHandler[K](todos, todos.Keys(), logger).RegisterRoutes(s.router)
	handler.NewHealthHandler(todos, logger).RegisterRoutes(s.router)
	s.events.RegisterRoutes(s.router)

	if cfg.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain. CORS wraps the router
// so that preflight requests are answered even without an OPTIONS route.
func (s *Server) setupMiddleware() {
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics())
	}
	chain = append(chain, middleware.Logging(s.logger))

	s.router.Use(mux.MiddlewareFunc(middleware.Chain(chain...)))

	s.handler = middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: s.config.Origins(),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"Location", middleware.RequestIDHeader},
		MaxAge:         24 * time.Hour,
	})(s.router)
}

func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown closes websocket subscribers and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.events.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Handler returns the root HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the server's router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Events returns the websocket event hub.
func (s *Server) Events() *handler.EventHub {
	return s.events
}
