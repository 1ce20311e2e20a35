package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/logger"
	"workforce/pkg/metrics"
)

// AssignmentService 管理员下发任务的个人进度，与外勤任务的单任务限制无关
type AssignmentService struct {
	deps Deps
}

func NewAssignmentService(deps Deps) *AssignmentService {
	return &AssignmentService{deps: deps.withDefaults()}
}

// assignmentTransition 计算状态变更需要写入的字段。
// changed=false 表示终态重放，不做任何修改
func assignmentTransition(
	current model.TaskAssignment,
	next model.AssignmentStatus,
	notes string,
	now time.Time,
) (updates map[string]interface{}, changed bool, err error) {
	if !next.Valid() {
		return nil, false, pkgerrors.InvalidStatus
	}

	from := current.Status
	if from.Terminal() {
		if next == from {
			return nil, false, nil
		}
		return nil, false, pkgerrors.AssignmentFinalized
	}

	updates = map[string]interface{}{
		"status":     next,
		"updated_at": now,
	}

	switch {
	case from == model.AssignmentStatusPending && next == model.AssignmentStatusInProgress:
		updates["started_at"] = now
	case from == model.AssignmentStatusInProgress && next == model.AssignmentStatusPending:
		updates["started_at"] = nil
	}
	if next == model.AssignmentStatusCompleted {
		updates["completed_at"] = now
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		updates["notes"] = notes
	}

	return updates, true, nil
}

// Update 更新本人名下某个分配的状态
func (s *AssignmentService) Update(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.UpdateAssignmentRequest,
) (assignment *model.TaskAssignment, err error) {
	ctx, span := tracer.Start(ctx, "AssignmentService.Update")
	defer func() { finish(ctx, span, "update_assignment", err) }()

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	// 状态值在访问数据库前校验
	next := model.AssignmentStatus(req.Status)
	if !next.Valid() {
		return nil, pkgerrors.InvalidStatus.WithDetails(map[string]interface{}{"status": req.Status})
	}

	now := s.deps.Now()
	var current model.TaskAssignment
	var changed bool

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND assigned_to = ?", req.AssignmentID, identity.ID).
			Take(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.AssignmentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to query assignment: %w", err)
		}

		var updates map[string]interface{}
		updates, changed, err = assignmentTransition(current, next, req.Notes, now)
		if err != nil || !changed {
			return err
		}

		result := tx.Model(&model.TaskAssignment{}).
			Where("id = ? AND status = ?", current.ID, current.Status).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update assignment %d: %w", current.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return pkgerrors.RequestInProgress
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindStorage {
			logger.For(ctx).Info("Assignment update rejected",
				zap.Int64("employee_id", identity.ID),
				zap.Int64("assignment_id", req.AssignmentID),
				zap.String("status", req.Status),
				zap.Error(err),
			)
		}
		return nil, err
	}

	updated, err := s.get(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	if !changed {
		return updated, nil
	}

	metrics.Get().RecordAssignmentUpdate(ctx, string(current.Status), string(next))
	logger.For(ctx).Info("Assignment updated",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("assignment_id", current.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventAssignmentUpdated, identity.ID, now, map[string]interface{}{
		"assignment_id": current.ID,
		"task_id":       current.TaskID,
		"from":          string(current.Status),
		"to":            string(next),
	}))

	return updated, nil
}

// List 本人名下的分配，带上任务信息
func (s *AssignmentService) List(
	ctx context.Context,
	identity model.EmployeeIdentity,
	query dto.ListAssignmentsQuery,
) ([]model.TaskAssignment, error) {
	if err := dto.Validate(query); err != nil {
		return nil, err
	}

	db := s.deps.DB.WithContext(ctx).Preload("Task").Where("assigned_to = ?", identity.ID)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	var assignments []model.TaskAssignment
	if err := db.Order("created_at DESC, id DESC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (s *AssignmentService) get(ctx context.Context, id int64) (*model.TaskAssignment, error) {
	var assignment model.TaskAssignment
	// 刚提交的写入，从主库读
	err := s.deps.DB.WithContext(ctx).Clauses(dbresolver.Write).Preload("Task").Where("id = ?", id).Take(&assignment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment %d: %w", id, err)
	}
	return &assignment, nil
}
