package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/geo"
	"workforce/pkg/logger"
	"workforce/pkg/metrics"
	"workforce/utils"
)

const (
	minTitleLength   = 3
	defaultListLimit = 50
)

// TaskService 外勤任务：签到后创建，同一员工最多一个进行中的任务
type TaskService struct {
	deps Deps
}

func NewTaskService(deps Deps) *TaskService {
	return &TaskService{deps: deps.withDefaults()}
}

// Create 依次校验：标题、当天在班、无进行中任务、地点有效、距签到点不超过半径
func (s *TaskService) Create(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.CreateTaskRequest,
) (summary *dto.TaskSummary, err error) {
	ctx, span := tracer.Start(ctx, "TaskService.Create")
	defer func() { finish(ctx, span, "create_task", err) }()

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, pkgerrors.TitleTooShort
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	image, err := s.deps.decodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	release, err := s.deps.lockEmployee(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	now, workDate := s.deps.today()
	lat, lon := *req.Latitude, *req.Longitude

	task := model.Task{
		EmployeeID:  identity.ID,
		SiteID:      req.SiteID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      model.TaskStatusActive,
		StartTime:   now,
		Latitude:    lat,
		Longitude:   lon,
	}

	var distance float64
	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := openRecordTx(tx, identity.ID, workDate)
		if err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&model.Task{}).
			Where("employee_id = ? AND status = ?", identity.ID, model.TaskStatusActive).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to query active tasks: %w", err)
		}
		if active > 0 {
			return pkgerrors.ActiveTaskExists
		}

		if err := requireActiveSite(tx, req.SiteID); err != nil {
			return err
		}

		// 没有签到坐标时不做围栏校验
		fence := geo.NewFence(record.CheckInLatitude, record.CheckInLongitude, s.deps.GeofenceRadius)
		var ok bool
		ok, distance = fence.Check(lat, lon)
		if fence.Origin != nil {
			metrics.Get().RecordGeofenceDistance(ctx, distance, ok)
		}
		if !ok {
			return pkgerrors.LocationTooFar.WithDetails(map[string]interface{}{
				"distance_meters": int64(distance),
				"radius_meters":   int64(s.deps.GeofenceRadius),
			})
		}

		ref, err := s.deps.saveImage(ctx, image, "task")
		if err != nil {
			return err
		}
		task.ImageRef = ref
		task.AttendanceID = record.ID

		if err := tx.Create(&task).Error; err != nil {
			// 部分唯一索引保证并发创建时只有一个成功
			if isUniqueViolation(err) {
				return pkgerrors.ActiveTaskExists
			}
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindStorage {
			logger.For(ctx).Info("Task creation rejected",
				zap.Int64("employee_id", identity.ID),
				zap.Float64("distance_meters", distance),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.Get().RecordTaskTransition(ctx, string(model.TaskStatusActive))
	logger.For(ctx).Info("Field task created",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("task_id", task.ID),
		zap.Int64("attendance_id", task.AttendanceID),
		zap.Float64("distance_meters", distance),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventTaskCreated, identity.ID, now, map[string]interface{}{
		"task_id":       task.ID,
		"site_id":       task.SiteID,
		"attendance_id": task.AttendanceID,
	}))

	return toTaskSummary(&task), nil
}

// Complete 结束进行中的任务，备注追加到描述，返回整分钟时长
func (s *TaskService) Complete(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.CompleteTaskRequest,
) (data *dto.TaskCompletionData, err error) {
	ctx, span := tracer.Start(ctx, "TaskService.Complete")
	defer func() { finish(ctx, span, "complete_task", err) }()

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	image, err := s.deps.decodeImage(req.CompletionImage)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now()
	var task model.Task

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.activeTaskTx(tx, identity.ID, req.TaskID, &task); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":     model.TaskStatusCompleted,
			"end_time":   now,
			"updated_at": now,
		}

		if notes := strings.TrimSpace(req.CompletionNotes); notes != "" {
			task.Description = appendCompletionNotes(task.Description, notes)
			updates["description"] = task.Description
		}
		if req.Latitude != nil && req.Longitude != nil {
			updates["end_latitude"] = *req.Latitude
			updates["end_longitude"] = *req.Longitude
			task.EndLatitude, task.EndLongitude = req.Latitude, req.Longitude
		}

		ref, err := s.deps.saveImage(ctx, image, "task_done")
		if err != nil {
			return err
		}
		if ref != nil {
			updates["image_ref"] = *ref
			task.ImageRef = ref
		}

		return s.transitionTx(tx, &task, updates)
	})
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatusCompleted
	task.EndTime = &now
	minutes := utils.WholeMinutes(task.StartTime, now)

	metrics.Get().RecordTaskTransition(ctx, string(model.TaskStatusCompleted))
	metrics.Get().RecordTaskDuration(ctx, minutes)
	logger.For(ctx).Info("Field task completed",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("task_id", task.ID),
		zap.Int64("duration_minutes", minutes),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventTaskCompleted, identity.ID, now, map[string]interface{}{
		"task_id":          task.ID,
		"duration_minutes": minutes,
	}))

	return &dto.TaskCompletionData{
		ID:              task.ID,
		Status:          string(task.Status),
		StartTime:       task.StartTime,
		EndTime:         now,
		ImageRef:        task.ImageRef,
		DurationMinutes: minutes,
	}, nil
}

// Cancel 取消进行中的任务
func (s *TaskService) Cancel(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.CancelTaskRequest,
) (summary *dto.TaskSummary, err error) {
	ctx, span := tracer.Start(ctx, "TaskService.Cancel")
	defer func() { finish(ctx, span, "cancel_task", err) }()

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	now := s.deps.Now()
	var task model.Task

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.activeTaskTx(tx, identity.ID, req.TaskID, &task); err != nil {
			return err
		}
		return s.transitionTx(tx, &task, map[string]interface{}{
			"status":     model.TaskStatusCancelled,
			"end_time":   now,
			"updated_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	task.Status = model.TaskStatusCancelled
	task.EndTime = &now

	metrics.Get().RecordTaskTransition(ctx, string(model.TaskStatusCancelled))
	logger.For(ctx).Info("Field task cancelled",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("task_id", task.ID),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventTaskCancelled, identity.ID, now, map[string]interface{}{
		"task_id": task.ID,
	}))

	return toTaskSummary(&task), nil
}

// List 列出员工自己的任务，最新的在前
func (s *TaskService) List(
	ctx context.Context,
	identity model.EmployeeIdentity,
	query dto.ListTasksQuery,
) ([]dto.TaskSummary, error) {
	if err := dto.Validate(query); err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	db := s.deps.DB.WithContext(ctx).Where("employee_id = ?", identity.ID)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	var tasks []model.Task
	if err := db.Order("start_time DESC, id DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	result := make([]dto.TaskSummary, 0, len(tasks))
	for i := range tasks {
		result = append(result, *toTaskSummary(&tasks[i]))
	}
	return result, nil
}

// activeTaskTx 任务必须存在、属于该员工且处于进行中
func (s *TaskService) activeTaskTx(tx *gorm.DB, employeeID, taskID int64, task *model.Task) error {
	err := tx.Where("id = ? AND employee_id = ? AND status = ?", taskID, employeeID, model.TaskStatusActive).
		Take(task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.TaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query task: %w", err)
	}
	return nil
}

// transitionTx 条件更新，只有仍处于 active 的任务会被修改
func (s *TaskService) transitionTx(tx *gorm.DB, task *model.Task, updates map[string]interface{}) error {
	result := tx.Model(&model.Task{}).
		Where("id = ? AND status = ?", task.ID, model.TaskStatusActive).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update task %d: %w", task.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.TaskNotFound
	}
	return nil
}

func appendCompletionNotes(description, notes string) string {
	if description == "" {
		return "Completion Notes: " + notes
	}
	return description + "\n\nCompletion Notes: " + notes
}

func toTaskSummary(task *model.Task) *dto.TaskSummary {
	return &dto.TaskSummary{
		ID:           task.ID,
		SiteID:       task.SiteID,
		AttendanceID: task.AttendanceID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       string(task.Status),
		Latitude:     task.Latitude,
		Longitude:    task.Longitude,
		StartTime:    task.StartTime,
		EndTime:      task.EndTime,
		ImageRef:     task.ImageRef,
	}
}
