package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/logger"
)

// AdminTaskService 管理员创建任务并分配给多名员工。
// AdminTask.Status 只能由管理员修改，不随分配进度变化
type AdminTaskService struct {
	deps Deps
}

func NewAdminTaskService(deps Deps) *AdminTaskService {
	return &AdminTaskService{deps: deps.withDefaults()}
}

// AdminTaskData 创建结果
type AdminTaskData struct {
	Task        model.AdminTask        `json:"task"`
	Assignments []model.TaskAssignment `json:"assignments"`
}

// Create 创建任务，并为每个去重后的员工生成一条 pending 分配
func (s *AdminTaskService) Create(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.CreateAdminTaskRequest,
) (data *AdminTaskData, err error) {
	ctx, span := tracer.Start(ctx, "AdminTaskService.Create")
	defer func() { finish(ctx, span, "create_admin_task", err) }()

	if !identity.IsAdmin() {
		return nil, pkgerrors.Forbidden
	}

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, pkgerrors.TitleTooShort
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	priority := model.Priority(req.Priority)
	if priority == "" {
		priority = model.PriorityMedium
	}

	assignees := dedupe(req.AssigneeIDs)
	now := s.deps.Now()

	task := model.AdminTask{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Status:      model.AssignmentStatusPending,
		DueDate:     req.DueDate,
		CreatedBy:   identity.ID,
	}
	var assignments []model.TaskAssignment

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&model.Employee{}).
			Where("id IN ? AND status = ?", assignees, model.EmployeeStatusActive).
			Count(&found).Error; err != nil {
			return fmt.Errorf("failed to query assignees: %w", err)
		}
		if found != int64(len(assignees)) {
			return pkgerrors.InvalidAssignee
		}

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("failed to create admin task: %w", err)
		}

		assignments = make([]model.TaskAssignment, 0, len(assignees))
		for _, employeeID := range assignees {
			assignments = append(assignments, model.TaskAssignment{
				TaskID:     task.ID,
				AssignedTo: employeeID,
				AssignedBy: identity.ID,
				Status:     model.AssignmentStatusPending,
			})
		}

		if err := tx.Omit("Task").Create(&assignments).Error; err != nil {
			return fmt.Errorf("failed to create assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx).Info("Admin task created",
		zap.Int64("admin_id", identity.ID),
		zap.Int64("task_id", task.ID),
		zap.Int("assignees", len(assignments)),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventAdminTaskCreated, identity.ID, now, map[string]interface{}{
		"task_id":      task.ID,
		"priority":     string(task.Priority),
		"assignee_ids": assignees,
	}))

	return &AdminTaskData{Task: task, Assignments: assignments}, nil
}

// SetStatus 管理员手动设置任务状态，不影响各分配
func (s *AdminTaskService) SetStatus(
	ctx context.Context,
	identity model.EmployeeIdentity,
	taskID int64,
	req dto.UpdateAdminTaskStatusRequest,
) (task *model.AdminTask, err error) {
	ctx, span := tracer.Start(ctx, "AdminTaskService.SetStatus")
	defer func() { finish(ctx, span, "set_admin_task_status", err) }()

	if !identity.IsAdmin() {
		return nil, pkgerrors.Forbidden
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	status := model.AssignmentStatus(req.Status)
	if !status.Valid() {
		return nil, pkgerrors.InvalidStatus
	}

	db := s.deps.DB.WithContext(ctx)
	now := s.deps.Now()

	result := db.Model(&model.AdminTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{"status": status, "updated_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update admin task %d: %w", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.AdminTaskNotFound
	}

	var updated model.AdminTask
	if err := db.Clauses(dbresolver.Write).Where("id = ?", taskID).Take(&updated).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.AdminTaskNotFound
		}
		return nil, fmt.Errorf("failed to reload admin task %d: %w", taskID, err)
	}

	logger.For(ctx).Info("Admin task status set",
		zap.Int64("admin_id", identity.ID),
		zap.Int64("task_id", taskID),
		zap.String("status", req.Status),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventAdminTaskStatus, identity.ID, now, map[string]interface{}{
		"task_id": taskID,
		"status":  req.Status,
	}))

	return &updated, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
