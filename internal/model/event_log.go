package model

import "time"

// EventLog 领域事件审计记录，EventID 唯一，重复投递只落库一次
type EventLog struct {
	OccurredAt time.Time `gorm:"not null;index:idx_event_logs_occurred" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	EventID    string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"event_id"`
	Type       string    `gorm:"type:varchar(64);not null;index:idx_event_logs_type" json:"type"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID int64     `gorm:"not null;index:idx_event_logs_employee" json:"employee_id"`
}

func (EventLog) TableName() string {
	return "event_logs"
}
