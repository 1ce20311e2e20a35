package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"workforce/internal/middleware"
	"workforce/internal/model/dto"
	"workforce/internal/service"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/response"
)

// RecordAttendance 签到或签退，由 action 字段区分
// POST /v1/attendance
func RecordAttendance(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	var req dto.AttendanceRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	switch req.Action {
	case dto.ActionCheckIn:
		result, err := service.Attendance().CheckIn(ctx, identity, req)
		if err != nil {
			response.Error(ctx, c, err)
			return
		}
		response.Created(ctx, c, "Checked in successfully", result)

	case dto.ActionCheckOut:
		result, err := service.Attendance().CheckOut(ctx, identity, req)
		if err != nil {
			response.Error(ctx, c, err)
			return
		}
		response.Success(ctx, c, "Checked out successfully", result)

	default:
		response.Error(ctx, c, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{
			"action": "oneof=" + dto.ActionCheckIn + " " + dto.ActionCheckOut,
		}))
	}
}

// GetTodayAttendance 查询当天考勤状态
// GET /v1/attendance/today
func GetTodayAttendance(ctx context.Context, c *app.RequestContext) {
	identity, ok := middleware.MustIdentity(ctx, c)
	if !ok {
		return
	}

	result, err := service.Attendance().Today(ctx, identity)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "OK", result)
}
