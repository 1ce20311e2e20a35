package dto

import "time"

// ========== Field task 相关 DTO ==========

// CreateTaskRequest POST /v1/tasks
type CreateTaskRequest struct {
	Latitude    *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Title       string   `json:"title" validate:"max=255"`
	Description string   `json:"description" validate:"max=5000"`
	Image       string   `json:"image"`
	SiteID      int64    `json:"site_id" validate:"required,gt=0"`
}

// CompleteTaskRequest PUT /v1/tasks
type CompleteTaskRequest struct {
	Latitude        *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	CompletionNotes string   `json:"completion_notes" validate:"max=2000"`
	CompletionImage string   `json:"completion_image"`
	TaskID          int64    `json:"task_id" validate:"required,gt=0"`
}

// CancelTaskRequest DELETE /v1/tasks
type CancelTaskRequest struct {
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
}

// ListTasksQuery GET /v1/tasks
type ListTasksQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=active completed cancelled"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// TaskSummary 任务摘要
type TaskSummary struct {
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ImageRef     *string    `json:"image_ref,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	ID           int64      `json:"task_id"`
	SiteID       int64      `json:"site_id"`
	AttendanceID int64      `json:"attendance_id"`
}

// TaskCompletionData 完成任务结果
type TaskCompletionData struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ImageRef        *string   `json:"image_ref,omitempty"`
	Status          string    `json:"status"`
	ID              int64     `json:"task_id"`
	DurationMinutes int64     `json:"duration_minutes"`
}
