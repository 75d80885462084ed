// package server contains the router, middleware and handlers of the development myMPD backend
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/models"
	"github.com/desertthunder/mpdx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows its own routes.
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

// MockOpts configures a [Mock].
type MockOpts struct {
	Addr   string
	PIN    string
	Logger *log.Logger
}

// Mock is a stand-in myMPD server: the JSON-RPC endpoint plus the websocket push channel.
type Mock struct {
	API    *APIHandler
	Socket *SocketHandler

	router *BasicRouter
	addr   string
	pin    string
	logger *log.Logger

	mu     sync.Mutex
	player models.PlayerState
}

// NewMock wires both handlers behind a logging router.
func NewMock(opts MockOpts) *Mock {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := shared.WithLogger(opts.Logger, "component", "mock")

	m := &Mock{
		API:    NewAPIHandler(opts.PIN, logger),
		Socket: NewSocketHandler(logger),
		router: NewBasicRouter(),
		addr:   opts.Addr,
		pin:    opts.PIN,
		logger: logger,
		player: models.PlayerState{
			State:       models.StateStop,
			Volume:      50,
			SongID:      1,
			TotalTime:   library[0].Duration,
			QueueLength: len(library),
			NextSongPos: 1,
		},
	}
	m.seed()
	m.router.Use(Recover(logger), Logging(logger))
	m.router.Handler(m.API)
	m.router.Handler(m.Socket)
	return m
}

// ServeHTTP implements [http.Handler].
func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) { m.router.ServeHTTP(w, r) }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (m *Mock) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: m.addr, Handler: m, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		m.logger.Info("mock myMPD listening", "addr", m.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("mock server failed: %w", err)
	case <-ctx.Done():
	}

	m.Socket.CloseAll()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("mock server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
