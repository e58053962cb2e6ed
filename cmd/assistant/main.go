// cmd/assistant/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"meal-assistant/internal/analyzer"
	"meal-assistant/internal/common/config"
	"meal-assistant/internal/common/database"
	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/common/observability"
	"meal-assistant/internal/conversation"
	"meal-assistant/internal/nutrition"
	"meal-assistant/internal/product"
	"meal-assistant/internal/quantity"
	"meal-assistant/internal/server"
	"meal-assistant/internal/session"
	"meal-assistant/internal/suggest"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting meal assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("meal-assistant")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Load data tables (compiled-in defaults when no path is set) ---
	portions := quantity.DefaultPortionTable()
	if cfg.Tables.Portions != "" {
		portions, err = quantity.LoadPortionTable(cfg.Tables.Portions)
		if err != nil {
			zapLog.Fatal("portion table load failed", zap.Error(err))
		}
	}

	corrector := nutrition.DefaultCorrector()
	if cfg.Tables.Corrections != "" {
		corrector, err = nutrition.LoadCorrector(cfg.Tables.Corrections)
		if err != nil {
			zapLog.Fatal("correction table load failed", zap.Error(err))
		}
	}

	suggester := suggest.DefaultGenerator()
	if cfg.Tables.Suggestions != "" {
		suggester, err = suggest.LoadGenerator(cfg.Tables.Suggestions)
		if err != nil {
			zapLog.Fatal("suggestion table load failed", zap.Error(err))
		}
	}

	// --- Init External Service Clients ---
	mealAnalyzer, err := analyzer.NewOpenAIAnalyzer(analyzer.Config{
		APIKey:     cfg.Analyzer.APIKey,
		BaseURL:    cfg.Analyzer.BaseURL,
		Model:      cfg.Analyzer.Model,
		TimeoutSec: cfg.Analyzer.Timeout / 1000,
	}, log)
	if err != nil {
		zapLog.Fatal("analyzer init failed", zap.Error(err))
	}

	products := product.NewClient(product.Config{
		BaseURL:     cfg.Products.BaseURL,
		TimeoutSec:  cfg.Products.Timeout / 1000,
		CacheTTLMin: cfg.Products.CacheTTLMin,
	}, log)

	zapLog.Info("All external service clients initialized")

	// --- Wire the conversation pipeline ---
	parser := quantity.NewParser(portions)
	orchestrator := conversation.NewOrchestrator(parser, corrector, suggester, mealAnalyzer, products, log)

	store := session.NewStore(redis.Client, time.Duration(cfg.Session.TTLMin)*time.Minute, log)

	srv := server.New(cfg.Server, orchestrator, store, redis, obs, log)

	// pprof on a side port, never exposed publicly
	go func() {
		zapLog.Info("pprof listening on :6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			zapLog.Warn("pprof server stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Meal assistant stopped")
}
