package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"workforce/internal/middleware"
	"workforce/internal/model/dto"
	"workforce/internal/service"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/response"
)

// CreateAdminTask 管理员创建任务并分配
// POST /v1/admin/tasks
func CreateAdminTask(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.CreateAdminTaskRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.AdminTask().Create(ctx, identity, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, "Task assigned successfully", result)
}

// SetAdminTaskStatus 管理员设置任务本身的状态
// PATCH /v1/admin/tasks/:task_id/status
func SetAdminTaskStatus(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	taskID, err := strconv.ParseInt(c.Param("task_id"), 10, 64)
	if err != nil || taskID <= 0 {
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{"task_id": "gt=0"}))
		return
	}

	var req dto.UpdateAdminTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.AdminTask().SetStatus(ctx, identity, taskID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "Task status updated", result)
}
