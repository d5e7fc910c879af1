package server

import (
	"context"
	"net/http"
	"time"

	"github.com/lucaspires-source/authdash/internal/kvstore"
)

type Config struct {
	ListenAddr string
	// JWTSecret signs profile cookies. Empty means a random per-process
	// secret.
	JWTSecret   string
	Notice      string
	CORSOrigins []string
	PerPage     int
}

type Server struct {
	cfg     Config
	h       http.Handler
	httpSrv *http.Server
}

func New(cfg Config, store kvstore.Store, dir Directory) (*Server, error) {
	app, err := newApp(cfg, store, dir)
	if err != nil {
		return nil, err
	}
	h := app.routes()
	return &Server{
		cfg: cfg,
		h:   h,
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.h
}

// ListenAndServe blocks until the server stops. It returns nil after
// Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
