package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workforce/config"
	"workforce/internal/model"
	"workforce/pkg/logger"
	"workforce/storage/database"
)

type seedFile struct {
	Employees []seedEmployee `json:"employees"`
	Sites     []seedSite     `json:"sites"`
}

type seedEmployee struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type seedSite struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
	Active    *bool    `json:"active"`
}

// seed 写入员工与工作地点，员工按 code 幂等
func main() {
	path := flag.String("file", "seed.json", "path to the seed file")
	flag.Parse()

	if err := config.Load(); err != nil {
		panic(err)
	}

	logger.Init()
	defer logger.Sync()

	raw, err := os.ReadFile(*path)
	if err != nil {
		logger.Logger.Fatal("Failed to read seed file", zap.String("path", *path), zap.Error(err))
	}

	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Logger.Fatal("Failed to parse seed file", zap.Error(err))
	}

	if err := database.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		_ = database.Close(context.Background())
	}()

	err = database.DB().Transaction(func(tx *gorm.DB) error {
		for _, e := range data.Employees {
			employee := toEmployee(e)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "role", "status", "updated_at"}),
			}).Create(&employee).Error; err != nil {
				return err
			}
		}

		for _, s := range data.Sites {
			site := model.Site{Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude, Active: true}
			if s.Active != nil {
				site.Active = *s.Active
			}
			if err := tx.Create(&site).Error; err != nil {
				return err
			}
			logger.Logger.Info("Site created", zap.Int64("site_id", site.ID), zap.String("name", site.Name))
		}
		return nil
	})
	if err != nil {
		logger.Logger.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Logger.Info("Seed complete",
		zap.Int("employees", len(data.Employees)),
		zap.Int("sites", len(data.Sites)),
	)
}

func toEmployee(e seedEmployee) model.Employee {
	employee := model.Employee{
		Code:   e.Code,
		Name:   e.Name,
		Role:   model.EmployeeRoleStaff,
		Status: model.EmployeeStatusActive,
	}
	if e.Role == string(model.EmployeeRoleAdmin) {
		employee.Role = model.EmployeeRoleAdmin
	}
	if e.Status == string(model.EmployeeStatusInactive) {
		employee.Status = model.EmployeeStatusInactive
	}
	return employee
}
