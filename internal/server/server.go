package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/desertthunder/reelx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for handlers that own more than one route.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// FeedSource loads the ordered feed. [repositories.FeedItemRepository] satisfies it.
type FeedSource interface {
	Feed() ([]models.FeedItem, error)
}

// Window is the part of [preload.Window] the server drives.
type Window interface {
	Move(ctx context.Context, index int) error
	Refresh(ctx context.Context, items []preload.Item) error
	Snapshot() preload.Snapshot
	OnPass(fn func(preload.Snapshot))
}

var _ Window = (*preload.Window)(nil)

const shutdownTimeout = 5 * time.Second

// Server is the status server: router, handlers and the websocket hub.
type Server struct {
	addr   string
	router *BasicRouter
	hub    *Hub
	logger *log.Logger
}

// New wires routes for window and feed. Every window pass is broadcast to websocket clients.
func New(cfg shared.ServerConfig, window Window, feed FeedSource, logger *log.Logger) *Server {
	hub := NewHub(window.Snapshot, logger)
	window.OnPass(hub.Broadcast)

	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))

	router.Handle(http.MethodGet, "/health", http.HandlerFunc(Health))
	router.Handler(NewFeedHandler(feed, logger))
	router.Handler(NewWindowHandler(window, feed, logger))
	router.Handle(http.MethodGet, "/window/events", hub)

	return &Server{addr: cfg.Addr(), router: router, hub: hub, logger: logger}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}
