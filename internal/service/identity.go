package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce/internal/model"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/logger"
)

// IdentityService 将 token 中的员工 ID 解析为 EmployeeIdentity
type IdentityService struct {
	deps Deps
}

func NewIdentityService(deps Deps) *IdentityService {
	return &IdentityService{deps: deps.withDefaults()}
}

// Resolve 查询员工并拒绝不存在或已停用的账号
func (s *IdentityService) Resolve(ctx context.Context, employeeID int64) (model.EmployeeIdentity, error) {
	var employee model.Employee
	err := s.deps.DB.WithContext(ctx).
		Select("id", "name", "role", "status").
		Where("id = ?", employeeID).
		Take(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.For(ctx).Info("Token refers to unknown employee", zap.Int64("employee_id", employeeID))
		return model.EmployeeIdentity{}, pkgerrors.Unauthorized
	}
	if err != nil {
		return model.EmployeeIdentity{}, fmt.Errorf("failed to load employee %d: %w", employeeID, err)
	}

	identity := model.EmployeeIdentity{
		ID:     employee.ID,
		Name:   employee.Name,
		Role:   employee.Role,
		Status: employee.Status,
	}
	if !identity.IsActive() {
		return model.EmployeeIdentity{}, pkgerrors.EmployeeInactive
	}

	return identity, nil
}
