// Package main runs the background email worker (registration confirmations).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/panelevent/backend/config"
	"github.com/panelevent/backend/internal/emaillogs"
	"github.com/panelevent/backend/internal/mailer"
	"github.com/panelevent/backend/internal/worker"
	"github.com/panelevent/backend/pkg/database"
	"github.com/panelevent/backend/pkg/queue"
	"github.com/panelevent/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(
		jobQueue,
		mailer.NewRenderer(),
		mailer.New(mailer.Config{
			Provider:    cfg.Email.Provider,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			SES: mailer.SESConfig{
				Region:          cfg.Email.SES.Region,
				AccessKeyID:     cfg.Email.SES.AccessKeyID,
				SecretAccessKey: cfg.Email.SES.SecretAccessKey,
			},
		}, logger),
		emaillogs.NewRepository(pool),
		cfg.Email.CheckinURL,
		logger,
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started", zap.String("provider", cfg.Email.Provider))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)

	if dead, err := jobQueue.DeadLetters(context.Background(), 10); err == nil && len(dead) > 0 {
		logger.Warn("dead-lettered email jobs pending", zap.Int("count", len(dead)))
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
