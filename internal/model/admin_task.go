package model

import "time"

// Priority 管理员任务优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// AssignmentStatus is shared by TaskAssignment and the admin-controlled AdminTask status.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are allowed.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}

// AdminTask 管理员下发的任务，状态由管理员手动设置，不随分配记录变化
type AdminTask struct {
	BaseModel
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text;not null;default:''" json:"description"`
	Priority    Priority         `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	Status      AssignmentStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedBy   int64            `gorm:"not null;index:idx_admin_tasks_created_by" json:"created_by"`
}

func (AdminTask) TableName() string {
	return "admin_tasks"
}

// TaskAssignment tracks one assignee's progress on an AdminTask.
type TaskAssignment struct {
	BaseModel
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Task        *AdminTask       `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Notes       string           `gorm:"type:text;not null;default:''" json:"notes"`
	Status      AssignmentStatus `gorm:"type:varchar(16);not null;index:idx_task_assignments_status" json:"status"`
	TaskID      int64            `gorm:"not null;uniqueIndex:idx_task_assignments_task_assignee,priority:1" json:"task_id"`
	AssignedTo  int64            `gorm:"not null;uniqueIndex:idx_task_assignments_task_assignee,priority:2;index:idx_task_assignments_assignee" json:"assigned_to"`
	AssignedBy  int64            `gorm:"not null" json:"assigned_by"`
}

func (TaskAssignment) TableName() string {
	return "task_assignments"
}
