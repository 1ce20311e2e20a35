package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workforce/internal/model"
	"workforce/pkg/logger"
	mqotel "workforce/pkg/mq"
	"workforce/storage/mq"
)

const (
	AuditQueue       = "workforce.audit"
	auditConsumerTag = "audit_consumer"
)

// AuditRecorder 把领域事件写入 event_logs
type AuditRecorder struct {
	db *gorm.DB
}

func NewAuditRecorder(db *gorm.DB) *AuditRecorder {
	return &AuditRecorder{db: db}
}

// Record 幂等落库，同一 event_id 重复投递时忽略
func (r *AuditRecorder) Record(ctx context.Context, body []byte) error {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return fmt.Errorf("event is missing id or type")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	row := model.EventLog{
		EventID:    event.ID,
		Type:       event.Type,
		EmployeeID: event.EmployeeID,
		OccurredAt: event.OccurredAt,
		Payload:    string(payload),
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to store event %s: %w", event.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		logger.For(ctx).Info("Duplicate event skipped",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
	}
	return nil
}

// StartAuditConsumer 声明审计队列，绑定所有事件并阻塞消费
func StartAuditConsumer(ctx context.Context, exchange, serviceName string, recorder *AuditRecorder) error {
	if err := mq.DeclareQueue(AuditQueue, exchange, "#"); err != nil {
		return err
	}

	handler := func(ctx context.Context, msg amqp.Delivery) error {
		start := time.Now()
		spanCtx, span := mqotel.StartConsumeSpan(ctx, serviceName, msg)

		err := recorder.Record(spanCtx, msg.Body)
		mqotel.EndConsumeSpan(spanCtx, span, msg, start, err)
		return err
	}

	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         AuditQueue,
		ConsumerTag:   auditConsumerTag,
		PrefetchCount: 20,
		Handler:       handler,
	})
}
