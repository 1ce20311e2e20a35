package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"workforce/internal/middleware"
	"workforce/internal/model/dto"
	"workforce/internal/service"
	"workforce/pkg/response"
)

// UpdateAssignment 更新本人的分配状态
// PUT /v1/admin_tasks
func UpdateAssignment(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Assignment().Update(ctx, identity, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "Assignment updated", result)
}

// ListAssignments 本人名下的分配
// GET /v1/admin_tasks?status=
func ListAssignments(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var query dto.ListAssignmentsQuery
	if err := c.Bind(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	result, err := service.Assignment().List(ctx, identity, query)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "OK", result)
}
