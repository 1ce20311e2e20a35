package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 领域事件的 routing key
const (
	EventCheckedIn         = "attendance.checked_in"
	EventCheckedOut        = "attendance.checked_out"
	EventTaskCreated       = "task.created"
	EventTaskCompleted     = "task.completed"
	EventTaskCancelled     = "task.cancelled"
	EventAssignmentUpdated = "assignment.updated"
	EventAdminTaskCreated  = "admin_task.created"
	EventAdminTaskStatus   = "admin_task.status_changed"
)

// Event 领域事件消息
type Event struct {
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
	ID         string                 `json:"event_id"`
	Type       string                 `json:"event_type"`
	EmployeeID int64                  `json:"employee_id"`
}

// NewEvent 生成带唯一 ID 的事件
func NewEvent(eventType string, employeeID int64, at time.Time, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: employeeID,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
}

// Publisher 在事务提交后发布事件，失败只记录日志，不影响业务结果
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 在 MQ 关闭时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
