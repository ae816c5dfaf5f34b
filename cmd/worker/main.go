package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/archdrift/engine/pkg/config"
	"github.com/archdrift/engine/pkg/database"
	"github.com/archdrift/engine/pkg/logger"

	"github.com/archdrift/engine/internal/analyzer"
	"github.com/archdrift/engine/internal/queue"
	"github.com/archdrift/engine/internal/queue/tasks"
	"github.com/archdrift/engine/internal/repository"
	"github.com/archdrift/engine/internal/services"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues: map[string]int{
				queue.QueueScans: 5,
				"default":        1,
			},
		},
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("failed to open database", zap.Error(err))
	}

	projectRepo := repository.NewProjectRepository(db)
	scanRepo := repository.NewScanRepository(db)

	analyzerClient := analyzer.NewClient(analyzer.Config{
		BaseURL: cfg.AnalyzerURL,
		Token:   cfg.GithubToken,
	})
	scanSvc := services.NewScanService(db, scanRepo)

	mux := asynq.NewServeMux()
	handler := tasks.NewScanTaskHandler(projectRepo, analyzerClient, scanSvc)
	mux.HandleFunc(queue.TypeScanRepo, handler.HandleScanRepo)

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("asynq worker starting",
			zap.Int("concurrency", cfg.AsynqConcurrency),
			zap.String("analyzer_url", cfg.AnalyzerURL),
		)
		if err := srv.Run(mux); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.L().Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.L().Error("worker stopped with error", zap.Error(err))
	}

	// Allow in-flight scans to finish gracefully
	srv.Shutdown()
}
