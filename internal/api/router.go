package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cleanCity/internal/api/handlers/http/admin"
	"cleanCity/internal/api/handlers/http/public"
	"cleanCity/internal/api/handlers/http/system"
	"cleanCity/internal/config"
	"cleanCity/internal/middleware"
	"cleanCity/internal/render"
	"cleanCity/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
	stop   context.CancelFunc
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service, uploads public.Uploads, checks ...system.Check) *Server {
	adminHandler := admin.NewHandler(logger, svc.Sessions, svc.Reports, svc.Stats)
	publicHandler := public.NewHandler(logger, svc.Reports, uploads, cfg.Uploads.MaxBytes)
	systemHandler := system.NewHandler(logger, checks...)

	ctx, stop := context.WithCancel(context.Background())
	r := InitRouter(ctx, adminHandler, publicHandler, systemHandler, svc.Sessions, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
		stop:   stop,
	}
}

// Close stops the router's background goroutines. Safe to call more than once.
func (s *Server) Close() {
	s.stop()
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func InitRouter(ctx context.Context, adminHandler *admin.Handler, publicHandler *public.Handler, systemHandler *system.Handler, auth middleware.Authenticator, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Error(w, http.StatusNotFound, render.CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = render.Error(w, http.StatusMethodNotAllowed, render.CodeInvalidInput, "method not allowed")
	})

	requireAdmin := middleware.RequireAdmin(auth, logger)

	r.Route("/api", func(api chi.Router) {
		api.Route("/reports", func(rr chi.Router) {
			rr.Get("/", publicHandler.ListReports)
			rr.With(middleware.Limit(ctx, 1, 10, 10*time.Minute, logger)).Post("/", publicHandler.CreateReport)

			rr.Route("/{id}", func(ir chi.Router) {
				ir.Get("/", publicHandler.GetReport)
				ir.With(requireAdmin).Patch("/status", adminHandler.ReportStatusUpdate)
			})
		})

		api.Route("/admin", func(ar chi.Router) {
			ar.With(middleware.Limit(ctx, 0.2, 5, 10*time.Minute, logger)).Post("/login", adminHandler.Login)
			ar.Post("/logout", adminHandler.Logout)

			ar.Group(func(pr chi.Router) {
				pr.Use(requireAdmin)
				pr.Get("/me", adminHandler.Me)
				pr.Get("/stats", adminHandler.AdminStats)
			})
		})

		api.Get("/health", systemHandler.SystemHealth)
		api.Get("/ready", systemHandler.SystemReady)
	})

	r.Get("/uploads/{filename}", publicHandler.ServeUpload)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
