package model

import "time"

// TaskStatus 外勤任务状态
type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusActive, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Task is a field task an employee creates for themself while checked in.
// The partial unique index keeps at most one active task per employee.
type Task struct {
	BaseModel
	StartTime    time.Time  `gorm:"not null" json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	ImageRef     *string    `gorm:"type:varchar(255)" json:"image_ref,omitempty"`
	EndLatitude  *float64   `json:"end_latitude,omitempty"`
	EndLongitude *float64   `json:"end_longitude,omitempty"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:text;not null;default:''" json:"description"`
	Status       TaskStatus `gorm:"type:varchar(16);not null;index:idx_tasks_status" json:"status"`
	Latitude     float64    `gorm:"not null" json:"latitude"`
	Longitude    float64    `gorm:"not null" json:"longitude"`
	EmployeeID   int64      `gorm:"not null;index:idx_tasks_employee;uniqueIndex:idx_tasks_one_active,where:status = 'active'" json:"employee_id"`
	SiteID       int64      `gorm:"not null" json:"site_id"`
	AttendanceID int64      `gorm:"not null;index:idx_tasks_attendance" json:"attendance_id"`
}

func (Task) TableName() string {
	return "tasks"
}
