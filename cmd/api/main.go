package main

import (
	"context"
	"errors"
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

	"github.com/statlab-ai/analyst-platform/internal/analyst"
	"github.com/statlab-ai/analyst-platform/internal/config"
	"github.com/statlab-ai/analyst-platform/internal/events"
	"github.com/statlab-ai/analyst-platform/internal/handler"
	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/middleware"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/internal/sqlgen"
	"github.com/statlab-ai/analyst-platform/internal/store"
	"github.com/statlab-ai/analyst-platform/internal/viz"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
	"github.com/statlab-ai/analyst-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "analyst-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer tracing.Shutdown(ctx, tp)
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	format, err := store.ParseFormat(cfg.OutputFormat)
	if err != nil {
		log.Fatal("invalid output format", zap.Error(err))
	}

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
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		publisher = events.NewPublisher(natsClient)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure events stream", zap.Error(err))
		}
	} else {
		log.Info("NATS_URL not set, event publishing disabled")
	}

	completion, err := llm.NewCompletionClient(llm.Provider(cfg.SQLBackend), completionKey(cfg))
	if err != nil {
		log.Fatal("failed to create completion client", zap.Error(err))
	}

	oracle, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatal("failed to create assistant client", zap.Error(err))
	}
	oracle.ConfigureRunPolling(cfg.RunPollInterval, cfg.RunTimeout)

	generator := sqlgen.New(completion, cfg.SQLModel)
	queries := pipeline.New(generator, db, format, log)
	vizAgent := viz.New(queries, oracle, cfg.VizAssistantID, log)
	orchestrator := analyst.New(oracle, cfg.AnalystAssistantID, queries, vizAgent, publisher, log)

	threadHandler := handler.NewThreadHandler(oracle, orchestrator, log)
	healthHandler := handler.NewHealthHandler(db, natsClient)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/create_thread", threadHandler.CreateThread)
	r.Post("/add_message", threadHandler.AddMessage)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// completionKey picks the API key matching the configured SQL backend.
func completionKey(cfg *config.Config) string {
	if cfg.SQLBackend == string(llm.ProviderAnthropic) {
		return cfg.AnthropicAPIKey
	}
	return cfg.OpenAIAPIKey
}
