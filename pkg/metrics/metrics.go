package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics 考勤与任务相关的业务指标
type Metrics struct {
	AttendanceTotal    metric.Int64Counter
	WorkingHours       metric.Float64Histogram
	TaskTransitions    metric.Int64Counter
	TaskDuration       metric.Float64Histogram
	AssignmentUpdates  metric.Int64Counter
	Rejections         metric.Int64Counter
	GeofenceDistance   metric.Float64Histogram
	EventPublishErrors metric.Int64Counter
}

var (
	global *Metrics
	once   sync.Once
)

// Get 懒加载，使用当前全局 MeterProvider；未初始化 OTel 时为 no-op
func Get() *Metrics {
	once.Do(func() {
		global = build(otel.Meter("workforce"))
	})
	return global
}

func build(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.AttendanceTotal, _ = meter.Int64Counter(
		"attendance_events_total",
		metric.WithDescription("Check-ins and check-outs recorded"),
		metric.WithUnit("{event}"),
	)
	m.WorkingHours, _ = meter.Float64Histogram(
		"attendance_working_hours",
		metric.WithDescription("Working hours computed at check-out"),
		metric.WithUnit("h"),
		metric.WithExplicitBucketBoundaries(1, 2, 4, 6, 8, 9, 10, 12, 16),
	)
	m.TaskTransitions, _ = meter.Int64Counter(
		"field_task_transitions_total",
		metric.WithDescription("Field task lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)
	m.TaskDuration, _ = meter.Float64Histogram(
		"field_task_duration_minutes",
		metric.WithDescription("Minutes between task start and completion"),
		metric.WithUnit("min"),
		metric.WithExplicitBucketBoundaries(5, 15, 30, 60, 120, 240, 480),
	)
	m.AssignmentUpdates, _ = meter.Int64Counter(
		"assignment_updates_total",
		metric.WithDescription("Assignment status updates"),
		metric.WithUnit("{update}"),
	)
	m.Rejections, _ = meter.Int64Counter(
		"business_rejections_total",
		metric.WithDescription("Requests rejected by a business rule"),
		metric.WithUnit("{rejection}"),
	)
	m.GeofenceDistance, _ = meter.Float64Histogram(
		"geofence_distance_meters",
		metric.WithDescription("Distance between check-in point and task location"),
		metric.WithUnit("m"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 2500, 5000, 10000, 50000),
	)
	m.EventPublishErrors, _ = meter.Int64Counter(
		"event_publish_errors_total",
		metric.WithDescription("Domain events that failed to publish"),
		metric.WithUnit("{error}"),
	)

	return m
}

func (m *Metrics) RecordAttendance(ctx context.Context, action string) {
	if m.AttendanceTotal != nil {
		m.AttendanceTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
	}
}

func (m *Metrics) RecordWorkingHours(ctx context.Context, hours float64) {
	if m.WorkingHours != nil {
		m.WorkingHours.Record(ctx, hours)
	}
}

func (m *Metrics) RecordTaskTransition(ctx context.Context, status string) {
	if m.TaskTransitions != nil {
		m.TaskTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (m *Metrics) RecordTaskDuration(ctx context.Context, minutes int64) {
	if m.TaskDuration != nil {
		m.TaskDuration.Record(ctx, float64(minutes))
	}
}

func (m *Metrics) RecordAssignmentUpdate(ctx context.Context, from, to string) {
	if m.AssignmentUpdates != nil {
		m.AssignmentUpdates.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		))
	}
}

// RecordRejection 按错误码统计业务拒绝
func (m *Metrics) RecordRejection(ctx context.Context, operation, code string) {
	if m.Rejections != nil {
		m.Rejections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("code", code),
		))
	}
}

func (m *Metrics) RecordGeofenceDistance(ctx context.Context, meters float64, accepted bool) {
	if m.GeofenceDistance != nil {
		m.GeofenceDistance.Record(ctx, meters, metric.WithAttributes(attribute.Bool("accepted", accepted)))
	}
}

func (m *Metrics) RecordPublishError(ctx context.Context, eventType string) {
	if m.EventPublishErrors != nil {
		m.EventPublishErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
	}
}
