package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"workforce/config"
	"workforce/internal/queue"
	"workforce/pkg/logger"
	"workforce/storage"
	"workforce/storage/database"
)

// worker 消费领域事件并写入 event_logs 审计表
func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if !config.Cfg.MQEnabled {
		logger.Logger.Fatal("MQ_ENABLED must be true to run the audit worker")
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
		zap.String("exchange", config.Cfg.EventsExchange),
	)

	recorder := queue.NewAuditRecorder(database.DB())
	if err := queue.StartAuditConsumer(ctx, config.Cfg.EventsExchange, config.Cfg.ServiceName, recorder); err != nil {
		logger.Logger.Error("Audit consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
