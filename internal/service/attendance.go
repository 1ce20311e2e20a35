package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/logger"
	"workforce/pkg/metrics"
)

// AttendanceService 管理员工每日签到签退
type AttendanceService struct {
	deps Deps
}

func NewAttendanceService(deps Deps) *AttendanceService {
	return &AttendanceService{deps: deps.withDefaults()}
}

// WorkingHours 签到到签退之间的整小时数加上剩余整分钟数/60，不足一分钟的部分舍去
func WorkingHours(checkIn, checkOut time.Time) float64 {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}

	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return float64(hours) + float64(minutes)/60
}

// CheckIn 当天首次签到
func (s *AttendanceService) CheckIn(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.AttendanceRequest,
) (data *dto.CheckInData, err error) {
	ctx, span := tracer.Start(ctx, "AttendanceService.CheckIn")
	defer func() { finish(ctx, span, "check_in", err) }()

	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.SiteID <= 0 {
		return nil, pkgerrors.InvalidRequest.WithDetails(map[string]interface{}{"site_id": "required"})
	}

	selfie, err := s.deps.decodeImage(req.Selfie)
	if err != nil {
		return nil, err
	}

	release, err := s.deps.lockEmployee(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	now, workDate := s.deps.today()

	record := model.AttendanceRecord{
		EmployeeID:       identity.ID,
		SiteID:           req.SiteID,
		WorkDate:         workDate,
		CheckInTime:      &now,
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
	}

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.AttendanceRecord{}).
			Where("employee_id = ? AND work_date = ?", identity.ID, workDate).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to query attendance: %w", err)
		}
		if existing > 0 {
			return pkgerrors.AlreadyCheckedIn
		}

		if err := requireActiveSite(tx, req.SiteID); err != nil {
			return err
		}

		ref, err := s.deps.saveImage(ctx, selfie, "checkin")
		if err != nil {
			return err
		}
		record.CheckInPhotoRef = ref

		if err := tx.Create(&record).Error; err != nil {
			// 并发签到由 (employee_id, work_date) 唯一索引兜底
			if isUniqueViolation(err) {
				return pkgerrors.AlreadyCheckedIn
			}
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindStorage {
			logger.For(ctx).Info("Check-in rejected",
				zap.Int64("employee_id", identity.ID),
				zap.String("date", workDate),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.Get().RecordAttendance(ctx, dto.ActionCheckIn)
	logger.For(ctx).Info("Employee checked in",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("attendance_id", record.ID),
		zap.Int64("site_id", record.SiteID),
		zap.String("date", workDate),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventCheckedIn, identity.ID, now, map[string]interface{}{
		"attendance_id": record.ID,
		"site_id":       record.SiteID,
		"date":          workDate,
	}))

	return &dto.CheckInData{
		ID:          record.ID,
		SiteID:      record.SiteID,
		Date:        workDate,
		CheckInTime: now,
		PhotoRef:    record.CheckInPhotoRef,
	}, nil
}

// CheckOut 签退并计算工作时长，每条记录只能签退一次
func (s *AttendanceService) CheckOut(
	ctx context.Context,
	identity model.EmployeeIdentity,
	req dto.AttendanceRequest,
) (data *dto.CheckOutData, err error) {
	ctx, span := tracer.Start(ctx, "AttendanceService.CheckOut")
	defer func() { finish(ctx, span, "check_out", err) }()

	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	selfie, err := s.deps.decodeImage(req.Selfie)
	if err != nil {
		return nil, err
	}

	release, err := s.deps.lockEmployee(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	now, workDate := s.deps.today()

	var record *model.AttendanceRecord
	var hours float64

	err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = openRecordTx(tx, identity.ID, workDate)
		if err != nil {
			return err
		}

		hours = WorkingHours(*record.CheckInTime, now)

		ref, err := s.deps.saveImage(ctx, selfie, "checkout")
		if err != nil {
			return err
		}

		result := tx.Model(&model.AttendanceRecord{}).
			Where("id = ? AND check_out_time IS NULL", record.ID).
			Updates(map[string]interface{}{
				"check_out_time":      now,
				"check_out_latitude":  req.Latitude,
				"check_out_longitude": req.Longitude,
				"check_out_photo_ref": ref,
				"working_hours":       hours,
				"updated_at":          now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update attendance record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return pkgerrors.AlreadyCheckedOut
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindStorage {
			logger.For(ctx).Info("Check-out rejected",
				zap.Int64("employee_id", identity.ID),
				zap.String("date", workDate),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.Get().RecordAttendance(ctx, dto.ActionCheckOut)
	metrics.Get().RecordWorkingHours(ctx, hours)
	logger.For(ctx).Info("Employee checked out",
		zap.Int64("employee_id", identity.ID),
		zap.Int64("attendance_id", record.ID),
		zap.Float64("working_hours", hours),
	)

	s.deps.publish(ctx, queue.NewEvent(queue.EventCheckedOut, identity.ID, now, map[string]interface{}{
		"attendance_id": record.ID,
		"date":          workDate,
		"working_hours": hours,
	}))

	return &dto.CheckOutData{
		ID:           record.ID,
		Date:         workDate,
		CheckInTime:  *record.CheckInTime,
		CheckOutTime: now,
		WorkingHours: hours,
	}, nil
}

// Today 查询当天考勤状态
func (s *AttendanceService) Today(ctx context.Context, identity model.EmployeeIdentity) (*dto.TodayAttendanceData, error) {
	_, workDate := s.deps.today()

	var record model.AttendanceRecord
	err := s.deps.DB.WithContext(ctx).
		Where("employee_id = ? AND work_date = ?", identity.ID, workDate).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.TodayAttendanceData{Date: workDate}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}

	return &dto.TodayAttendanceData{
		ID:           record.ID,
		SiteID:       record.SiteID,
		Date:         workDate,
		CheckInTime:  record.CheckInTime,
		CheckOutTime: record.CheckOutTime,
		WorkingHours: record.WorkingHours,
		CheckedIn:    record.CheckInTime != nil,
		CheckedOut:   record.CheckOutTime != nil,
	}, nil
}

// openRecordTx 锁定当天仍在班的考勤记录
func openRecordTx(tx *gorm.DB, employeeID int64, workDate string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND work_date = ?", employeeID, workDate).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}

	if record.CheckInTime == nil {
		return nil, pkgerrors.NotCheckedIn
	}
	if record.CheckOutTime != nil {
		return nil, pkgerrors.AlreadyCheckedOut
	}
	return &record, nil
}

func requireActiveSite(tx *gorm.DB, siteID int64) error {
	var count int64
	if err := tx.Model(&model.Site{}).
		Where("id = ? AND active = ?", siteID, true).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to query site: %w", err)
	}
	if count == 0 {
		return pkgerrors.InvalidSite
	}
	return nil
}
