package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	"workforce/config"
	"workforce/internal/cache"
	"workforce/internal/middleware"
	"workforce/internal/queue"
	"workforce/internal/router"
	"workforce/internal/service"
	"workforce/pkg/geo"
	"workforce/pkg/logger"
	"workforce/pkg/otel"
	"workforce/pkg/snowflake"
	"workforce/pkg/token"
	"workforce/storage"
	"workforce/storage/database"
	"workforce/storage/media"
	"workforce/storage/redis"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	// 日志部分
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

	if config.Cfg.OTelEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.Version,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTelEndpoint,
			SampleRatio:    config.Cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// token 在中间件前初始化，middleware 依赖 token
	if err := token.Init(config.Cfg.JWTSecret, time.Duration(config.Cfg.JWTExpireMinutes)*time.Minute); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	}

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	mediaStore, err := media.NewLocalStore(config.Cfg.MediaRoot)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize media store", zap.Error(err))
	}

	service.Init(service.Deps{
		DB:             database.DB(),
		Media:          mediaStore,
		Locker:         newLocker(),
		Events:         newPublisher(),
		Location:       config.Cfg.Location(),
		GeofenceRadius: geo.DefaultRadiusMeters,
		LockTTL:        config.Cfg.EmployeeLockTTL(),
		MediaMaxBytes:  config.Cfg.MediaMaxBytes,
	})

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.Bool("redis", config.Cfg.RedisEnabled),
		zap.Bool("mq", config.Cfg.MQEnabled),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	opts := []hertzconfig.Option{
		server.WithHostPorts(addr),
		server.WithHandleMethodNotAllowed(true),
		server.WithExitWaitTime(5 * time.Second),
	}

	var h *server.Hertz
	if config.Cfg.OTelEnabled {
		tracerOpt, tracingMiddleware := middleware.NewServerTracerConfig()
		h = server.Default(append(opts, tracerOpt)...)
		h.Use(tracingMiddleware)
	} else {
		h = server.Default(opts...)
	}

	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

// newLocker Redis 关闭时退化为进程内锁
func newLocker() cache.Locker {
	if config.Cfg.RedisEnabled && redis.Client() != nil {
		return cache.NewRedisLocker(redis.Client())
	}
	logger.Logger.Warn("Redis disabled, using in-process employee locks")
	return cache.NewMemoryLocker()
}

func newPublisher() queue.Publisher {
	if config.Cfg.MQEnabled {
		return queue.NewMQPublisher(config.Cfg.EventsExchange)
	}
	logger.Logger.Warn("Message queue disabled, domain events will not be published")
	return queue.NopPublisher{}
}
