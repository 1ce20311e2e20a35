package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"workforce/internal/handler"
	"workforce/internal/middleware"
	"workforce/internal/service"
	"workforce/pkg/response"
)

// Register 注册所有路由。server 需要开启 WithHandleMethodNotAllowed 才会返回 405
func Register(h *server.Hertz) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.MetricsMiddleware())

	h.NoRoute(func(ctx context.Context, c *app.RequestContext) {
		response.NotFound(ctx, c)
	})
	h.NoMethod(func(ctx context.Context, c *app.RequestContext) {
		response.MethodNotAllowed(ctx, c)
	})

	v1 := h.Group("/v1")
	v1.Use(middleware.AuthMiddleware(), middleware.IdentityMiddleware(service.Identity()))

	// 考勤
	attendance := v1.Group("/attendance")
	{
		attendance.POST("", handler.RecordAttendance)
		attendance.GET("/today", handler.GetTodayAttendance)
	}

	// 外勤任务
	tasks := v1.Group("/tasks")
	{
		tasks.POST("", handler.CreateTask)
		tasks.PUT("", handler.CompleteTask)
		tasks.DELETE("", handler.CancelTask)
		tasks.GET("", handler.ListTasks)
	}

	// 员工视角的管理员任务分配
	assignments := v1.Group("/admin_tasks")
	{
		assignments.PUT("", handler.UpdateAssignment)
		assignments.GET("", handler.ListAssignments)
	}

	admin := v1.Group("/admin", middleware.AdminOnly())
	{
		admin.POST("/tasks", handler.CreateAdminTask)
		admin.PATCH("/tasks/:task_id/status", handler.SetAdminTaskStatus)
	}
}
