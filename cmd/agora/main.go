package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/agoralabs/agora/internal/api/openai"
	"github.com/agoralabs/agora/internal/chat"
	"github.com/agoralabs/agora/internal/config"
	"github.com/agoralabs/agora/internal/console"
	"github.com/agoralabs/agora/internal/evaluation"
	"github.com/agoralabs/agora/internal/server"
	"github.com/agoralabs/agora/internal/storage/sqlite"
	"github.com/agoralabs/agora/internal/telemetry"
	"github.com/agoralabs/agora/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	tracerShutdown, err := telemetry.InitTracer("agora", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(os.Getenv("AGORA_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	var clientOpts []openai.ClientOption
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := openai.NewClient(cfg.OpenAI.APIKey, clientOpts...)

	chatHandler := chat.NewHandler(client, tokens.NewCounter())
	consoleHandler := console.NewHandler(store)
	evalHandler := evaluation.NewHandler(
		evaluation.NewRunner(client, cfg.Evaluation.Criteria, cfg.Evaluation.Model),
		store,
	)

	srv := server.New(cfg.Server.Port, logger)

	srv.Router.Route("/api", func(r chi.Router) {
		// The streaming chat route gets its own, longer timeout.
		r.Group(func(r chi.Router) {
			r.Use(server.TimeoutMiddleware(cfg.Server.StreamTimeoutDuration()))
			r.Post("/chat", chatHandler.HandleChat)
		})
		r.Group(func(r chi.Router) {
			r.Use(server.TimeoutMiddleware(cfg.Server.RequestTimeoutDuration()))
			consoleHandler.Routes(r)
			evalHandler.Routes(r)
		})
	})
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
