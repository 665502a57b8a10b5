// Package server implements the HTTP server: session CRUD, credential
// uploads, health endpoints, and the WebSocket terminal bridge.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/secrets"
	"github.com/gamgui-io/gamgui/internal/session"
)

// HeaderUser carries the authenticated user identity, set by the fronting
// proxy. Requests without it are rejected on user-scoped endpoints.
const HeaderUser = "X-Gamgui-User"

// Options configures a server.
type Options struct {
	Port     int // 0 for dynamic allocation
	Settings *models.Settings
	Sessions *session.Manager
	Secrets  secrets.Store
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int
	settings   *models.Settings
	sessions   *session.Manager
	secrets    secrets.Store
	startedAt  time.Time
}

// New creates a new server listening on the specified port.
// Pass port 0 for dynamic allocation.
func New(opts Options) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	srv := &Server{
		listener:  listener,
		port:      listener.Addr().(*net.TCPAddr).Port,
		settings:  opts.Settings,
		sessions:  opts.Sessions,
		secrets:   opts.Secrets,
		startedAt: time.Now().UTC(),
	}

	srv.httpServer = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// MuxPattern forms a URL pattern suitable for http.ServeMux method routing.
func MuxPattern(method string, segments ...string) string {
	return method + " /" + strings.Join(segments, "/")
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(MuxPattern(http.MethodGet, "health"), s.handleHealth)
	mux.HandleFunc(MuxPattern(http.MethodGet, "health", "info"), s.handleHealthInfo)

	mux.HandleFunc(MuxPattern(http.MethodGet, "api", "sessions"), s.handleListSessions)
	mux.HandleFunc(MuxPattern(http.MethodPost, "api", "sessions"), s.handleCreateSession)
	mux.HandleFunc(MuxPattern(http.MethodGet, "api", "sessions", "{id}"), s.handleGetSession)
	mux.HandleFunc(MuxPattern(http.MethodDelete, "api", "sessions", "{id}"), s.handleDeleteSession)
	mux.HandleFunc(MuxPattern(http.MethodGet, "api", "sessions", "{id}", "logs"), s.handleSessionLogs)

	mux.HandleFunc(MuxPattern(http.MethodGet, "secrets", "status"), s.handleSecretsStatus)
	mux.HandleFunc(MuxPattern(http.MethodPost, "secrets", "upload", "{secretType}"), s.handleSecretUpload)

	mux.HandleFunc(MuxPattern(http.MethodGet, "terminal"), s.handleTerminal)

	mux.Handle(MuxPattern(http.MethodGet, "metrics"), promhttp.Handler())

	return middlewarePanic(middlewareObserve(mux))
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
