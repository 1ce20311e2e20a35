package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"workforce/pkg/logger"
	"workforce/storage/mq"
)

// MQPublisher 将事件发布到 topic exchange，routing key 即事件类型
type MQPublisher struct {
	exchange string
}

func NewMQPublisher(exchange string) *MQPublisher {
	return &MQPublisher{exchange: exchange}
}

func (p *MQPublisher) Publish(ctx context.Context, event Event) error {
	if err := mq.PublishJSON(ctx, p.exchange, event.Type, event.ID, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	logger.For(ctx).Debug("Published domain event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int64("employee_id", event.EmployeeID),
	)
	return nil
}
