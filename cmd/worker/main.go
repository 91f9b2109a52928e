package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"attendtrack/internal/config"
	"attendtrack/internal/logging"
	"attendtrack/internal/queue"
	"attendtrack/internal/report"
	"attendtrack/internal/store"
)

// Worker consumes session-close messages and warms the reporting cache so
// rate lookups after a class ends are served from redis.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendtrack:events")
	}

	reports := report.NewService(report.NewRepository(db.Client), redisClient.Client, cfg.ReportCacheTTL, logger)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeSessionClosed {
			continue
		}

		var payload queue.SessionClosed
		if err := json.Unmarshal(msg.Body, &payload); err != nil {
			logger.Warn("malformed message body", zap.Error(err))
			continue
		}

		logger.Info("processing session close", zap.String("session_id", payload.SessionID))
		if err := reports.WarmSessionCohort(ctx, payload.SessionID); err != nil {
			logger.Error("cohort warm failed", zap.String("session_id", payload.SessionID), zap.Error(err))
		}
	}

	logger.Info("worker stopped")
}
