package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce/internal/cache"
	"workforce/internal/queue"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/geo"
	"workforce/pkg/logger"
	"workforce/pkg/metrics"
	"workforce/storage/media"
	"workforce/utils"
)

var tracer = otel.Tracer("workforce/service")

// Deps 各个 service 共享的依赖，由 main 或测试注入
type Deps struct {
	DB             *gorm.DB
	Media          media.Store
	Locker         cache.Locker
	Events         queue.Publisher
	Now            func() time.Time
	Location       *time.Location
	GeofenceRadius float64
	LockTTL        time.Duration
	MediaMaxBytes  int
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.GeofenceRadius <= 0 {
		d.GeofenceRadius = geo.DefaultRadiusMeters
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 10 * time.Second
	}
	if d.Events == nil {
		d.Events = queue.NopPublisher{}
	}
	return d
}

var (
	identityService   *IdentityService
	attendanceService *AttendanceService
	taskService       *TaskService
	assignmentService *AssignmentService
	adminTaskService  *AdminTaskService
)

// Init 构建所有 service，需在注册路由前调用
func Init(deps Deps) {
	d := deps.withDefaults()

	identityService = NewIdentityService(d)
	attendanceService = NewAttendanceService(d)
	taskService = NewTaskService(d)
	assignmentService = NewAssignmentService(d)
	adminTaskService = NewAdminTaskService(d)
}

func Identity() *IdentityService {
	return identityService
}

func Attendance() *AttendanceService {
	return attendanceService
}

func Task() *TaskService {
	return taskService
}

func Assignment() *AssignmentService {
	return assignmentService
}

func AdminTask() *AdminTaskService {
	return adminTaskService
}

// today 按配置时区计算的日历日期
func (d Deps) today() (time.Time, string) {
	now := d.Now()
	return now, utils.WorkDate(now, d.Location)
}

// lockEmployee 获取员工级短锁。锁被占用返回 RequestInProgress；
// Redis 不可用时只记录日志继续执行，正确性由数据库约束保证
func (d Deps) lockEmployee(ctx context.Context, employeeID int64) (func(), error) {
	if d.Locker == nil {
		return func() {}, nil
	}

	lock, err := d.Locker.Acquire(ctx, cache.EmployeeKey(employeeID), d.LockTTL)
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, pkgerrors.RequestInProgress
	}
	if err != nil {
		logger.For(ctx).Warn("Employee lock unavailable, continuing without it",
			zap.Int64("employee_id", employeeID),
			zap.Error(err),
		)
		return func() {}, nil
	}

	return func() {
		// 请求可能已被取消，释放锁不能依赖它
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		if err := lock.Release(releaseCtx); err != nil {
			logger.For(ctx).Warn("Failed to release employee lock",
				zap.String("key", lock.Key()),
				zap.Error(err),
			)
		}
	}, nil
}

// decodeImage 在任何数据库操作前校验图片，空字符串表示未上传
func (d Deps) decodeImage(payload string) (*utils.DecodedImage, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, nil
	}

	img, err := utils.DecodeBase64Image(payload, d.MediaMaxBytes)
	if err != nil {
		return nil, pkgerrors.InvalidImage.WithDetails(map[string]interface{}{"reason": err.Error()})
	}
	return img, nil
}

// saveImage 写入 MediaStore；失败属于存储错误
func (d Deps) saveImage(ctx context.Context, img *utils.DecodedImage, prefix string) (*string, error) {
	if img == nil {
		return nil, nil
	}
	if d.Media == nil {
		return nil, errors.New("media store is not configured")
	}

	ref, err := d.Media.Save(ctx, img, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s image: %w", prefix, err)
	}
	return &ref, nil
}

// publish 事务提交后发布事件，失败不影响业务结果
func (d Deps) publish(ctx context.Context, event queue.Event) {
	if err := d.Events.Publish(ctx, event); err != nil {
		metrics.Get().RecordPublishError(ctx, event.Type)
		logger.For(ctx).Error("Failed to publish domain event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}

// isUniqueViolation 兼容 TranslateError 与未翻译的驱动错误
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// finish 结束 span；业务拒绝记为指标，其余错误标记 span 失败
func finish(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()

	if err == nil {
		return
	}

	if def, ok := pkgerrors.As(err); ok && def.Kind != pkgerrors.KindStorage {
		metrics.Get().RecordRejection(ctx, operation, def.Code)
		span.SetAttributes(attribute.String("error.code", def.Code))
		return
	}

	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
