package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"

	"github.com/skboreys/sundaycodelabs/internal/api"
	"github.com/skboreys/sundaycodelabs/internal/config"
	"github.com/skboreys/sundaycodelabs/internal/core"
	"github.com/skboreys/sundaycodelabs/internal/intent"
	"github.com/skboreys/sundaycodelabs/internal/line"
	"github.com/skboreys/sundaycodelabs/internal/store"
	"github.com/skboreys/sundaycodelabs/internal/telemetry"
)

const serviceName = "line-dialogflow-relay"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer(serviceName, logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer shutdownTracer(context.Background())
	}
	httpClient := telemetry.HTTPClient()

	var googleOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	// Initialize registration store
	memberStore, err := openStore(ctx, cfg, googleOpts)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.StoreBackend, err)
	}
	defer memberStore.Close()

	// Initialize LINE client
	lineClient, err := line.NewClient(cfg.LineChannelAccessToken, httpClient)
	if err != nil {
		log.Fatalf("Failed to initialize LINE client: %v", err)
	}

	// Initialize intent detection
	var detector core.Detector
	switch cfg.IntentBackend {
	case "dialogflow":
		df, err := intent.NewDialogflowDetector(ctx, cfg.DialogflowProjectID, cfg.DialogflowLanguage, lineClient, logger, googleOpts...)
		if err != nil {
			log.Fatalf("Failed to initialize Dialogflow client: %v", err)
		}
		defer df.Close()
		detector = df
	default:
		detector = intent.NewRelay(cfg.RelayURL(), cfg.LineChannelSecret, httpClient)
	}

	dispatcher := core.NewDispatcher(detector, lineClient, logger)
	fulfiller := core.NewFulfiller(memberStore, logger)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(cfg.LineChannelSecret, dispatcher, fulfiller, logger)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("starting server", "addr", serverAddr, "intent_backend", cfg.IntentBackend, "store_backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let already accepted events finish before the clients are closed.
	dispatcher.Wait()
	logger.Info("server exiting gracefully")
}

func openStore(ctx context.Context, cfg config.Config, googleOpts []option.ClientOption) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.DatabaseURL)
	case "redis":
		return store.NewRedisStore(ctx, cfg.RedisAddr)
	default:
		return store.NewFirestoreStore(ctx, cfg.FirestoreProjectID, googleOpts...)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
