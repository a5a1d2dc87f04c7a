// Package server runs the HTTP endpoints of mobigame.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bloops-games/mobigame/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server is an HTTP server bound to a listener.
type Server struct {
	ip       string
	port     string
	listener net.Listener
}

// New listens on port. An empty port or "0" picks a free one.
func New(port string) (*Server, error) {
	addr := fmt.Sprintf(":%s", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s: %w", addr, err)
	}

	return &Server{
		ip:       listener.Addr().(*net.TCPAddr).IP.String(),
		port:     fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port),
		listener: listener,
	}, nil
}

func (s *Server) Port() string {
	return s.port
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.ip, s.port)
}

// ServeHTTP serves srv until ctx is cancelled, then shuts it down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx).Named("server.ServeHTTP")

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Debugf("context closed, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}

	logger.Debugf("serving stopped")

	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	return nil
}
