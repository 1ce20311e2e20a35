package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"workforce/internal/middleware"
	"workforce/internal/model/dto"
	"workforce/internal/service"
	"workforce/pkg/response"
)

// CreateTask 创建外勤任务
// POST /v1/tasks
func CreateTask(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Task().Create(ctx, identity, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Created(ctx, c, "Task created successfully", result)
}

// CompleteTask 完成进行中的任务
// PUT /v1/tasks
func CompleteTask(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.CompleteTaskRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Task().Complete(ctx, identity, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "Task completed successfully", result)
}

// CancelTask 取消进行中的任务
// DELETE /v1/tasks
func CancelTask(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.CancelTaskRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Task().Cancel(ctx, identity, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "Task cancelled", result)
}

// ListTasks 列出自己的任务
// GET /v1/tasks?status=&limit=
func ListTasks(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var query dto.ListTasksQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Task().List(ctx, identity, query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "OK", result)
}
