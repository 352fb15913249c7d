package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"xrates-sync-service/internal/infrastructure/logging"
)

// Server envuelve el http.Server con arranque y parada ordenada
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer no fija WriteTimeout: el endpoint de streaming mantiene conexiones largas
func NewServer(handler http.Handler, port int, readHeaderTimeout time.Duration) *Server {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       60 * time.Second,
		},
		port: port,
	}
}

// Start bloquea hasta que el servidor se detiene. Tras Stop retorna nil.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(listener)
}

// Serve atiende sobre un listener ya abierto
func (s *Server) Serve(listener net.Listener) error {
	logging.Info(context.Background(), "HTTP server starting", logging.Fields{
		"addr": listener.Addr().String(),
		"endpoints": []string{
			"GET /health",
			"GET /ready",
			"GET /metrics",
			"GET /swagger/index.html",
			"GET /api/v1/charts/{asset}/{currency}/{kind}",
			"GET /api/v1/charts/{asset}/{currency}/{kind}/stream",
			"GET /api/v1/rates/{asset}/{currency}",
			"GET /api/v1/rates/{asset}/{currency}/historical?timestamp=",
			"GET /api/v1/markets/top?limit=&currency=",
			"GET /api/v1/subscriptions",
		},
	})

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	logging.Info(ctx, "Stopping HTTP server gracefully", logging.Fields{
		"port": s.port,
	})
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetPort() int {
	return s.port
}
