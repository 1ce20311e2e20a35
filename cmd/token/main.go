package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"workforce/config"
	"workforce/pkg/logger"
	"workforce/pkg/token"
)

// token 为指定员工签发访问令牌，本地联调用
func main() {
	employeeID := flag.Int64("employee", 0, "employee id to issue a token for")
	flag.Parse()

	if err := config.Load(); err != nil {
		panic(err)
	}

	logger.Init()
	defer logger.Sync()

	if *employeeID <= 0 {
		logger.Logger.Fatal("-employee is required")
	}

	if err := token.Init(config.Cfg.JWTSecret, time.Duration(config.Cfg.JWTExpireMinutes)*time.Minute); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	}

	signed, expiresAt, err := token.GenerateAccessToken(*employeeID)
	if err != nil {
		logger.Logger.Fatal("Failed to issue token", zap.Error(err))
	}

	logger.Logger.Info("Token issued",
		zap.Int64("employee_id", *employeeID),
		zap.Time("expires_at", expiresAt),
	)
	fmt.Fprintln(os.Stdout, signed)
}
