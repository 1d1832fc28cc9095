// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/config"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/handler"
	"github.com/olegiv/folio-go/internal/logging"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/objectstore"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/sweeper"
	"github.com/olegiv/folio-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	showHelp := flag.Bool("help", false, "print usage information and exit")

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := &version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		fmt.Println(info)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	queries := store.New(db)

	// Cache backend: Redis when configured, in-process memory otherwise
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	var responseCache cache.Cache
	if cfg.UseRedisCache() {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: cacheTTL,
		})
		if err != nil {
			slog.Warn("redis unavailable, falling back to memory cache", "error", err)
			responseCache = cache.NewMemoryCache(cacheTTL, cfg.CacheMaxSize)
		} else {
			slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
			responseCache = redisCache
		}
	} else {
		slog.Info("cache initialized", "backend", "memory")
		responseCache = cache.NewMemoryCache(cacheTTL, cfg.CacheMaxSize)
	}
	defer func() {
		if err := responseCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	dispatcher := cache.NewDispatcher(responseCache, logger)

	// Object storage for project images
	ctx := context.Background()
	var objects objectstore.Store = objectstore.Disabled{}
	if cfg.StorageEnabled() {
		s3Store, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Endpoint:  cfg.StorageEndpoint,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return fmt.Errorf("initializing object storage: %w", err)
		}
		objects = s3Store
		slog.Info("object storage initialized", "bucket", cfg.StorageBucket, "region", cfg.StorageRegion)
	}

	// Orphaned image sweeper retries storage deletes that failed at request time
	if cfg.SweepSchedule != "" && cfg.StorageEnabled() {
		sweep := sweeper.New(db, objects, cfg.SweepSchedule, logger)
		if err := sweep.Start(); err != nil {
			return fmt.Errorf("starting orphan sweeper: %w", err)
		}
		defer sweep.Stop()
		slog.Info("orphan sweeper started", "schedule", cfg.SweepSchedule)
	}

	// Token service with per-admin revocation watermark
	tokens := auth.NewTokenService([]byte(cfg.TokenSecret), func(ctx context.Context, email string) (time.Time, error) {
		minIssued, err := queries.GetAdminMinIssuedAt(ctx, email)
		if err != nil {
			return time.Time{}, err
		}
		if !minIssued.Valid {
			return time.Time{}, nil
		}
		return minIssued.Time, nil
	})

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	contentService := content.NewService(queries, objects, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, tokens, loginProtection, !cfg.IsDevelopment(), logger)
	contentHandler := handler.NewContentHandler(contentService, dispatcher, logger)
	projectsHandler := handler.NewProjectsHandler(contentService, dispatcher, logger)
	revalidateHandler := handler.NewRevalidateHandler(dispatcher, logger)
	adminHandler := handler.NewAdminHandler(queries, logger)
	healthHandler := handler.NewHealthHandler(db, responseCache, versionInfo)

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	apiGate := middleware.APIGate(tokens)
	adminGate := middleware.AdminGate(tokens)

	// Health check routes
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public content API, served through the response cache
	r.Group(func(r chi.Router) {
		r.Use(middleware.ResponseCache(responseCache, cacheTTL))
		r.Get("/api/projects", projectsHandler.List)
		r.Get("/api/projects/{slug}", projectsHandler.Get)
		r.Get("/api/{kind}", contentHandler.Get)
	})

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(apiGate).Get("/verify", authHandler.Verify)
	})

	// Content mutations share the public paths but require a valid token
	r.Group(func(r chi.Router) {
		r.Use(apiGate)
		r.Post("/api/projects", projectsHandler.Create)
		r.Put("/api/projects/{slug}", projectsHandler.Update)
		r.Delete("/api/projects/{slug}", projectsHandler.Delete)
		r.Put("/api/{kind}", contentHandler.Update)
	})

	// Admin-only API routes
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(apiGate)
		r.Get("/health", healthHandler.Detail)
		r.Get("/events", adminHandler.Events)
	})

	// Cache revalidation hook for the frontend deploy pipeline
	r.With(apiGate).Post("/api/revalidate", revalidateHandler.Revalidate)

	// Admin pages: everything under /admin except the login page sits
	// behind the redirecting gate.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", adminHandler.LoginPage)
		r.Group(func(r chi.Router) {
			r.Use(adminGate)
			r.Get("/", adminHandler.Dashboard)
			r.HandleFunc("/*", http.NotFound)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			handler.WriteNotFound(w, "Not found")
			return
		}
		http.NotFound(w, r)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
