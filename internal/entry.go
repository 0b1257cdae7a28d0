// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/bhbtrucksales/storefront/internal/api"
	"github.com/bhbtrucksales/storefront/internal/auth"
	"github.com/bhbtrucksales/storefront/internal/contact"
	"github.com/bhbtrucksales/storefront/internal/inventory"
	"github.com/bhbtrucksales/storefront/internal/mcpserver"
	"github.com/bhbtrucksales/storefront/internal/storage"
	"github.com/bhbtrucksales/storefront/internal/telemetry"
	"github.com/bhbtrucksales/storefront/internal/uploads"
)

// pruneInterval is how often expired sessions and rate limit entries are dropped.
const pruneInterval = time.Minute

var errConfigRequired = errors.New("config is required")

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*storage.JSONStore, error) {
	store, err := storage.NewJSONStore(cfg.Data.Dir, cfg.Data.Filename, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	// A corrupt data file aborts startup instead of being replaced.
	if err := store.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap data file: %w", err)
	}
	return store, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("env", cfg.App.Env),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("data_file", cfg.Data.Filename),
		slog.String("uploads_dir", cfg.Uploads.Dir),
		slog.Any("cors_origins", cfg.App.CORS.Origins),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	inv := inventory.NewService(store, inventory.WithLogger(logger))

	files, err := uploads.NewManager(cfg.Uploads.Dir, uploads.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("init uploads: %w", err)
	}

	gate, err := auth.NewGate(auth.Config{
		AdminPassword: cfg.Auth.AdminPassword,
		SessionSecret: cfg.Auth.SessionSecret,
		TTL:           cfg.Auth.SessionTTL,
		FailureDelay:  cfg.Auth.FailureDelay,
		SecureCookie:  cfg.App.Production(),
	}, auth.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	var mailer contact.Mailer
	if cfg.Contact.SendGridAPIKey != "" {
		mailer = contact.NewSendGridMailer(cfg.Contact.SendGridAPIKey, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, contact submissions will only be logged")
		mailer = contact.NewLogMailer(logger)
	}
	limiter := contact.NewRateLimiter(contact.DefaultWindow, contact.DefaultMaxAttempts)
	contacts := contact.NewService(contact.Config{
		BusinessEmail: cfg.Contact.BusinessEmail,
		FromEmail:     cfg.Contact.FromEmail,
	}, limiter, mailer, contact.WithLogger(logger))

	metrics := telemetry.New()

	apiRouter := api.NewRouter(api.Deps{
		Inventory: inv,
		Uploads:   files,
		Gate:      gate,
		Contact:   contacts,
		Logger:    logger,
		Metrics:   metrics,
		Version:   app.version,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.Read(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Uploaded images are public.
	r.Get("/uploads/*", api.UploadFileHandler(files.Root()))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Drop expired sessions and stale rate limit entries.
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case now := <-ticker.C:
				sessions := gate.Prune(now)
				ips := limiter.Prune(now)
				if sessions > 0 || ips > 0 {
					logger.Debug("pruned expired state",
						slog.Int("sessions", sessions),
						slog.Int("rate_limit_entries", ips))
				}
			}
		}
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the background loops exit.
var errShutdown = errors.New("shutdown")

// RunMCP serves the read-only inventory tools over stdio. Logs go to stderr
// because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	inv := inventory.NewService(store, inventory.WithLogger(logger))

	logger.Info("Serving MCP over stdio", slog.String("data_file", cfg.Data.Filename))
	return mcpserver.New(inv, app.version).ServeStdio()
}
