// cmd/consumer/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gym-churn-workers/internal/churn"
	"gym-churn-workers/internal/common/config"
	"gym-churn-workers/internal/common/database"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/common/observability"
	"gym-churn-workers/internal/consumer"
	"gym-churn-workers/internal/handlers/dailyreport"
	"gym-churn-workers/internal/handlers/processbulk"
	"gym-churn-workers/internal/handlers/processcheckin"
	"gym-churn-workers/internal/handlers/retrainmodel"
	"gym-churn-workers/internal/queue"
	"gym-churn-workers/internal/store"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting check-in event consumer...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("checkin-consumer")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	// The report cache is best-effort; the consumer runs without it.
	var reportCache dailyreport.ReportCache
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Warn("redis unavailable, daily reports will not be cached", zap.Error(err))
	} else {
		defer redis.Close()
		reportCache = redis
		zapLog.Info("Redis connected successfully")
	}

	// --- Init RabbitMQ subscriber with retry ---
	var subscriber *queue.Subscriber
	err = retryWithBackoff(func() error {
		var err error
		subscriber, err = queue.NewSubscriber(cfg.RabbitMQ, log)
		return err
	}, 10, 2*time.Second, zapLog, "RabbitMQ subscriber initialization")

	if err != nil {
		zapLog.Fatal("rabbitmq subscriber failed after retries", zap.Error(err))
	}
	defer subscriber.Close()
	zapLog.Info("RabbitMQ subscriber connected successfully")

	// --- Init churn predictor ---
	predictor := churn.NewPredictor(cfg.Model, churn.StaticDatasetProvider{}, log)
	if err := predictor.EnsureLoaded(ctx); err != nil {
		// A retrain_model_event can still recover the model later.
		zapLog.Warn("churn model unavailable at startup", zap.Error(err))
	}

	repo := store.New(pg.DB)

	processor := consumer.NewProcessor(
		processcheckin.NewHandler(
			&processcheckin.Config{WorkDelay: config.GetDuration(cfg.Consumer.CheckinWorkDelay)},
			log,
		),
		processbulk.NewHandler(
			&processbulk.Config{ItemWorkDelay: config.GetDuration(cfg.Consumer.BulkItemWorkDelay)},
			log,
		),
		dailyreport.NewHandler(
			&dailyreport.Config{CacheTTL: time.Duration(cfg.Consumer.ReportCacheTTL) * time.Second},
			repo, reportCache, log,
		),
		retrainmodel.NewHandler(retrainmodel.DefaultConfig(), predictor, log),
		log,
		obs,
	)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8081")
		if err := http.ListenAndServe(":8081", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Consume loop ---
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- subscriber.Consume(ctx, processor.Handle)
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping consumer...")
		cancel()
		select {
		case <-consumeErr:
		case <-time.After(30 * time.Second):
			zapLog.Warn("Consumer did not stop within shutdown timeout")
		}
	case err := <-consumeErr:
		if err != nil && err != context.Canceled {
			zapLog.Fatal("consumer stopped unexpectedly", zap.Error(err))
		}
	}

	zapLog.Info("Consumer stopped gracefully")
}
