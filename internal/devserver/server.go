package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"garden/internal/logging"
)

// DefaultBind matches the port the web project documents.
const DefaultBind = ":8000"

// Config describes the development server.
type Config struct {
	Bind         string
	Root         string
	NotFoundPage string
	Logger       *slog.Logger
}

// Server is a development HTTP server bound to a single listener.
type Server struct {
	bind     string
	root     string
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

// New builds a server for cfg. Call Listen before Serve.
func New(cfg Config) (*Server, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		root = "."
	}
	bind := strings.TrimSpace(cfg.Bind)
	if bind == "" {
		bind = DefaultBind
	}
	logger := logging.NewComponentLogger(cfg.Logger, "devserver")
	return &Server{
		bind:   bind,
		root:   root,
		logger: logger,
		server: &http.Server{
			Handler:           NewHandler(root, cfg.NotFoundPage, logger),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Listen opens the TCP listener.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("devserver listen: %w", err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns a browsable URL for the bound address.
func (s *Server) URL() string {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return ""
	}
	host := "localhost"
	if ip := addr.IP; ip != nil && !ip.IsUnspecified() {
		host = ip.String()
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(addr.Port)))
}

// Serve accepts connections until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("serving", logging.String("url", s.URL()), logging.String("root", s.root))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("devserver: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
