// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the route table and runs the HTTP server
// with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/sakif/ai-directory/internal/auth"
	"github.com/sakif/ai-directory/internal/config"
	"github.com/sakif/ai-directory/internal/handler"
	"github.com/sakif/ai-directory/internal/metrics"
	"github.com/sakif/ai-directory/internal/middleware"
	sqliteRepo "github.com/sakif/ai-directory/internal/repository/sqlite"
	"github.com/sakif/ai-directory/internal/service"
	"github.com/sakif/ai-directory/internal/storage"
)

// Server owns the database connection; Start closes it on shutdown.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	uploads  *storage.Local
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// New opens the store and upload directory and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	uploads, err := storage.NewLocal(cfg.Storage.UploadDir, "/uploads")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening upload directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		uploads:  uploads,
		registry: reg,
		metrics:  metrics.New(reg),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes mounts:
//
//	GET  /healthz, /metrics, /sitemap.xml, /robots.txt, /uploads/{bucket}/{name}
//	GET  /auth/github/login, /auth/github/callback   POST /auth/logout   (OAuth configured)
//	     /api/...                                    (OptionalAuth when JWT_SECRET is set)
//	     /api/admin/...                              (admin password configured)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	if origins := s.config.Server.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}

	authCfg := s.config.Auth
	var tokens *auth.TokenService
	if authCfg.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(authCfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	} else {
		s.logger.Warn("JWT_SECRET not set: sign-in and admin routes are disabled")
	}

	// Services
	slugs := service.NewSlugService(s.db, s.db)
	likes := service.NewLikeService(s.db, s.db, s.metrics, s.logger)
	catalog := service.NewCatalogService(s.db, s.db, likes, s.logger)
	submissions := service.NewSubmissionService(s.db, s.db, slugs, s.uploads, s.metrics, s.logger)
	sitemap := service.NewSitemapService(s.config.Server.SiteURL, s.db, s.db, s.logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalog, s.logger)
	likeHandler := handler.NewLikeHandler(likes, s.logger)
	slugHandler := handler.NewSlugHandler(slugs, s.logger)
	submissionHandler := handler.NewSubmissionHandler(submissions, s.config.Server.MaxUploadBytes, s.logger)
	sitemapHandler := handler.NewSitemapHandler(sitemap, s.logger)
	uploadsHandler := handler.NewUploadsHandler(s.uploads, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))
	s.router.Get("/sitemap.xml", sitemapHandler.HandleSitemap)
	s.router.Get("/robots.txt", sitemapHandler.HandleRobots)
	s.router.Get("/uploads/{bucket}/{name}", uploadsHandler.HandleServe)

	var authHandler *handler.AuthHandler
	if tokens != nil {
		authService := service.NewAuthService(s.db, tokens, s.logger)
		var github *auth.GitHubProvider
		if authCfg.OAuthEnabled() {
			github = auth.NewGitHubProvider(authCfg.GitHubClientID, authCfg.GitHubClientSecret, authCfg.GitHubCallbackURL)
		}
		authHandler = handler.NewAuthHandler(github, authService, authCfg.CookieSecure, s.logger)

		if github != nil {
			s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
			s.logger.Info("GitHub OAuth enabled")
		} else {
			s.logger.Warn("GITHUB_CLIENT_ID not set: GitHub login is disabled")
		}
		s.router.Post("/auth/logout", authHandler.HandleLogout)
	}

	adminHandler, err := s.adminHandler(tokens)
	if err != nil {
		return err
	}

	s.router.Route("/api", func(r chi.Router) {
		if tokens != nil {
			r.Use(auth.OptionalAuth(tokens))
		}

		r.Get("/categories", catalogHandler.HandleListCategories)
		r.Get("/categories/{slug}", catalogHandler.HandleCategory)

		r.Get("/products", catalogHandler.HandleListProducts)
		r.Get("/products/slug/{slug}", catalogHandler.HandleProductBySlug)
		r.Get("/products/{id}", catalogHandler.HandleProductByID)
		r.Get("/products/{id}/like", likeHandler.HandleStatus)
		r.Post("/products/{id}/like", likeHandler.HandleToggle)

		r.Get("/slugs/suggest", slugHandler.HandleSuggest)
		r.Post("/submissions", submissionHandler.HandleCreate)

		if authHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
				r.Get("/me/likes", likeHandler.HandleMyLikes)
			})
		}

		if adminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", adminHandler.HandleLogin)
				r.Post("/logout", adminHandler.HandleLogout)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireAdmin(tokens))
					r.Get("/submissions", adminHandler.HandleListSubmissions)
					r.Get("/submissions/export.csv", adminHandler.HandleExportCSV)
					r.Put("/submissions/{id}", adminHandler.HandleUpdateSubmission)
					r.Post("/submissions/{id}/approve", adminHandler.HandleApprove)
					r.Post("/submissions/{id}/reject", adminHandler.HandleReject)
					r.Put("/products/{id}/featured", adminHandler.HandleSetFeatured)
					r.Delete("/products/{id}", adminHandler.HandleDeleteProduct)
				})
			})
		}
	})

	return nil
}

// adminHandler returns nil when admin login is not configured.
func (s *Server) adminHandler(tokens *auth.TokenService) (*handler.AdminHandler, error) {
	authCfg := s.config.Auth
	if tokens == nil || !authCfg.AdminEnabled() {
		s.logger.Warn("admin password not set: admin routes are disabled")
		return nil, nil
	}

	creds, ok, err := auth.NewAdminCredentials(auth.NewPasswordService(), authCfg.AdminPasswordHash, authCfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("loading admin credentials: %w", err)
	}
	if !ok {
		return nil, nil
	}

	admin := service.NewAdminService(creds, tokens, s.db, s.db, s.metrics, s.logger)
	return handler.NewAdminHandler(admin, authCfg.CookieSecure, s.logger), nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.SiteURL),
			slog.String("database", s.config.Storage.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
