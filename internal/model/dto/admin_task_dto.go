package dto

import "time"

// ========== Admin task / assignment 相关 DTO ==========

// UpdateAssignmentRequest PUT /v1/admin_tasks
type UpdateAssignmentRequest struct {
	Status       string `json:"status" validate:"required"`
	Notes        string `json:"notes" validate:"max=2000"`
	AssignmentID int64  `json:"assignment_id" validate:"required,gt=0"`
}

// ListAssignmentsQuery GET /v1/admin_tasks
type ListAssignmentsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

// CreateAdminTaskRequest POST /v1/admin/tasks
type CreateAdminTaskRequest struct {
	DueDate     *time.Time `json:"due_date"`
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=5000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssigneeIDs []int64    `json:"assignee_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateAdminTaskStatusRequest PATCH /v1/admin/tasks/:task_id/status
type UpdateAdminTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}
