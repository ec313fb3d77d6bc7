// Package main is the entry point for the loan-origination API server.
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

	"github.com/polaris-lending/loan-origination/internal/config"
	"github.com/polaris-lending/loan-origination/internal/events"
	"github.com/polaris-lending/loan-origination/internal/extract"
	"github.com/polaris-lending/loan-origination/internal/handler"
	"github.com/polaris-lending/loan-origination/internal/middleware"
	"github.com/polaris-lending/loan-origination/internal/offermart"
	"github.com/polaris-lending/loan-origination/internal/orchestrator"
	"github.com/polaris-lending/loan-origination/internal/sanction"
	"github.com/polaris-lending/loan-origination/internal/service"
	"github.com/polaris-lending/loan-origination/internal/underwriting"
	"github.com/polaris-lending/loan-origination/pkg/logger"
	"github.com/polaris-lending/loan-origination/pkg/tracing"
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

	log.Info("starting loan-origination API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "loan-origination", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS for the event audit trail (optional)
	var natsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		natsClient, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher, err = events.NewPublisher(ctx, natsClient, log)
		if err != nil {
			log.Error("failed to create event publisher", zap.Error(err))
			os.Exit(1)
		}
	}

	// Initialize the field extractor: LLM-backed when a key is configured,
	// deterministic heuristics otherwise.
	provider := extract.Provider(cfg.DefaultExtractor)
	apiKey := ""
	switch provider {
	case extract.ProviderAnthropic:
		apiKey = cfg.AnthropicAPIKey
	case extract.ProviderOpenAI:
		apiKey = cfg.OpenAIAPIKey
	}
	extractor, err := extract.NewExtractor(provider, apiKey)
	if err != nil {
		log.Warn("failed to create configured extractor, using heuristics", zap.Error(err))
		extractor = extract.NewHeuristicExtractor()
	}
	log.Info("field extractor ready", zap.String("provider", extractor.Name()))

	// Initialize collaborators and the rule engine
	lookup := offermart.NewStore(offermart.SeedProfiles())
	generator := sanction.NewLetterGenerator()
	engine := underwriting.NewEngine(underwriting.Config{
		MinCreditScore:      cfg.MinCreditScore,
		MaxEMIToSalaryRatio: cfg.MaxEMIToSalaryRatio,
		DefaultTenureMonths: cfg.DefaultTenureMonths,
	})

	// Initialize orchestrator and services
	orch := orchestrator.New(lookup, extractor, generator, engine, log)
	conversationSvc := service.NewConversationService(orch, publisher, cfg.MaxAgentCalls, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(conversationSvc, log)

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
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)

				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
