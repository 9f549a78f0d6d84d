// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/config"
	"github.com/eli5-ai/guest-platform/internal/events"
	"github.com/eli5-ai/guest-platform/internal/handler"
	"github.com/eli5-ai/guest-platform/internal/llm"
	"github.com/eli5-ai/guest-platform/internal/middleware"
	"github.com/eli5-ai/guest-platform/internal/service"
	"github.com/eli5-ai/guest-platform/internal/store"
	"github.com/eli5-ai/guest-platform/pkg/logger"
	"github.com/eli5-ai/guest-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "eli5-guest-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the session store backend
	kv, err := store.NewSQLiteKV(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open session database", zap.Error(err))
		os.Exit(1)
	}
	defer kv.Close()

	// Connect to NATS for telemetry if configured
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, event publishing disabled", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure event stream", zap.Error(err))
			}
		}
	}

	// Initialize the generation client
	var generator llm.Generator
	switch {
	case cfg.DefaultProvider == string(llm.ProviderOpenAI) && cfg.OpenAIAPIKey != "":
		generator, err = llm.NewOpenAIGenerator(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		generator, err = llm.NewAnthropicGenerator(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		generator, err = llm.NewOpenAIGenerator(cfg.OpenAIAPIKey)
	default:
		log.Error("no generation provider API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create generation client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services and handlers
	guestSvc := service.NewGuestService(kv, generator, publisher, log, cfg.GenerationTimeout)
	healthHandler := handler.NewHealthHandler(kv)
	sessionHandler := handler.NewSessionHandler(guestSvc, log)
	messageHandler := handler.NewMessageHandler(guestSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.GuestIDHeader},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/levels", sessionHandler.Levels)

		r.Route("/guest/session", func(r chi.Router) {
			r.Use(middleware.GuestID)
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Clear)
			r.Put("/level", sessionHandler.UpdateLevel)

			r.Post("/messages", messageHandler.Send)
			r.Post("/messages/{id}/regenerate", messageHandler.Regenerate)

			r.With(
				middleware.Auth(cfg.JWTSecret),
				middleware.RequireScope("sessions:migrate"),
			).Post("/migrate", sessionHandler.Migrate)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
