package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/rollbook/internal/config"
	"github.com/saltyorg/rollbook/internal/web/middleware"
	"github.com/saltyorg/rollbook/internal/web/templates"
)

// maxBodyBytes bounds form posts and spreadsheet uploads
const maxBodyBytes = 32 << 20

// Routes is implemented by each app's handler set
type Routes interface {
	Routes(r chi.Router)
}

// Server represents the web server of one app
type Server struct {
	cfg    *config.AppConfig
	router *chi.Mux
}

// NewServer creates a web server serving app's routes
func NewServer(cfg *config.AppConfig, app Routes) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupRoutes(app)
	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(app Routes) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.cfg.AllowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Timeouts.Request))
	r.Use(middleware.LimitBody(maxBodyBytes))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(templates.Static()))))

	app.Routes(r)
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr()

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: s.cfg.Timeouts.Read,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: s.cfg.Timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("app", s.cfg.App).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeouts.Shutdown)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
