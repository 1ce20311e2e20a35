package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce/internal/model"
	"workforce/pkg/logger"
)

// Migrate 运行数据库迁移，创建所有表和唯一索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.Employee{},
		&model.Site{},
		&model.AttendanceRecord{},
		&model.Task{},
		&model.AdminTask{},
		&model.TaskAssignment{},
		&model.EventLog{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed successfully")
	return nil
}
