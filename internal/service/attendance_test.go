package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workforce/internal/cache"
	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	"workforce/internal/testutil"
	pkgerrors "workforce/pkg/errors"
)

func checkInRequest(siteID int64, lat, lon float64) dto.AttendanceRequest {
	return dto.AttendanceRequest{
		Action:    dto.ActionCheckIn,
		SiteID:    siteID,
		Latitude:  testutil.Float(lat),
		Longitude: testutil.Float(lon),
	}
}

func checkOutRequest(lat, lon float64) dto.AttendanceRequest {
	return dto.AttendanceRequest{
		Action:    dto.ActionCheckOut,
		Latitude:  testutil.Float(lat),
		Longitude: testutil.Float(lon),
	}
}

func TestCheckIn_SecondCheckInSameDayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.attendance()

	data, err := svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", data.Date)
	assert.Equal(t, f.site.ID, data.SiteID)
	assert.True(t, data.CheckInTime.Equal(f.clock.Now()))
	assert.Nil(t, data.PhotoRef)

	f.clock.Advance(time.Hour)
	_, err = svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	assert.ErrorIs(t, err, pkgerrors.AlreadyCheckedIn)

	var count int64
	require.NoError(t, f.db.Model(&model.AttendanceRecord{}).Where("employee_id = ?", f.employee.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{queue.EventCheckedIn}, f.events.Types())
}

func TestCheckIn_NextDayStartsNewRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.attendance()

	_, err := svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	data, err := svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", data.Date)
}

func TestCheckIn_UsesConfiguredTimezoneForDate(t *testing.T) {
	f := newFixture(t)
	f.deps.Location = time.FixedZone("IST", 5*3600+1800)
	f.clock.Set(time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC))

	data, err := f.attendance().CheckIn(context.Background(), f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", data.Date)
}

func TestCheckIn_Rejections(t *testing.T) {
	f := newFixture(t)
	inactive := testutil.CreateSite(t, f.db, "closed", false, nil, nil)

	tests := []struct {
		name    string
		req     dto.AttendanceRequest
		wantErr error
	}{
		{name: "missing site", req: checkInRequest(0, originLat, originLon), wantErr: pkgerrors.InvalidRequest},
		{name: "unknown site", req: checkInRequest(9999, originLat, originLon), wantErr: pkgerrors.InvalidSite},
		{name: "inactive site", req: checkInRequest(inactive.ID, originLat, originLon), wantErr: pkgerrors.InvalidSite},
		{name: "latitude out of range", req: checkInRequest(f.site.ID, 91, originLon), wantErr: pkgerrors.InvalidRequest},
		{name: "missing coordinates", req: dto.AttendanceRequest{Action: dto.ActionCheckIn, SiteID: f.site.ID}, wantErr: pkgerrors.InvalidRequest},
		{
			name: "broken selfie",
			req: func() dto.AttendanceRequest {
				r := checkInRequest(f.site.ID, originLat, originLon)
				r.Selfie = "data:image/png;base64,???"
				return r
			}(),
			wantErr: pkgerrors.InvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.attendance().CheckIn(context.Background(), f.employee, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&model.AttendanceRecord{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Zero(t, f.media.Count())
}

func TestCheckIn_StoresSelfie(t *testing.T) {
	f := newFixture(t)

	req := checkInRequest(f.site.ID, originLat, originLon)
	req.Selfie = testutil.PNGBase64(t)

	data, err := f.attendance().CheckIn(context.Background(), f.employee, req)
	require.NoError(t, err)
	require.NotNil(t, data.PhotoRef)
	assert.Contains(t, f.media.Objects, *data.PhotoRef)

	var record model.AttendanceRecord
	require.NoError(t, f.db.First(&record, data.ID).Error)
	require.NotNil(t, record.CheckInPhotoRef)
	assert.Equal(t, *data.PhotoRef, *record.CheckInPhotoRef)
}

func TestCheckIn_MediaFailureLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	f.deps.Media = testutil.FailingMediaStore{}

	req := checkInRequest(f.site.ID, originLat, originLon)
	req.Selfie = testutil.PNGBase64(t)

	_, err := f.attendance().CheckIn(context.Background(), f.employee, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrMediaDown)
	assert.Equal(t, pkgerrors.KindStorage, pkgerrors.KindOf(err))

	var count int64
	require.NoError(t, f.db.Model(&model.AttendanceRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckIn_EmployeeLockHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lock, err := f.locker.Acquire(ctx, cache.EmployeeKey(f.employee.ID), time.Minute)
	require.NoError(t, err)

	_, err = f.attendance().CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	assert.ErrorIs(t, err, pkgerrors.RequestInProgress)

	require.NoError(t, lock.Release(ctx))
	_, err = f.attendance().CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	assert.NoError(t, err)
}

func TestAttendanceUniqueIndex(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	first := model.AttendanceRecord{EmployeeID: f.employee.ID, SiteID: f.site.ID, WorkDate: "2024-01-10", CheckInTime: &now}
	require.NoError(t, f.db.Create(&first).Error)

	dup := model.AttendanceRecord{EmployeeID: f.employee.ID, SiteID: f.site.ID, WorkDate: "2024-01-10", CheckInTime: &now}
	err := f.db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), err.Error())

	other := model.AttendanceRecord{EmployeeID: f.admin.ID, SiteID: f.site.ID, WorkDate: "2024-01-10", CheckInTime: &now}
	assert.NoError(t, f.db.Create(&other).Error)
}

func TestCheckIn_ConcurrentInsertMapsToAlreadyCheckedIn(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	f.interleaveInsert(t, "attendance_records", func(tx *gorm.DB) error {
		return tx.Create(&model.AttendanceRecord{
			EmployeeID:  f.employee.ID,
			SiteID:      f.site.ID,
			WorkDate:    "2024-01-10",
			CheckInTime: &now,
		}).Error
	})

	_, err := f.attendance().CheckIn(context.Background(), f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.ErrorIs(t, err, pkgerrors.AlreadyCheckedIn)
	assert.Equal(t, pkgerrors.KindConflict, pkgerrors.KindOf(err))

	var records int64
	require.NoError(t, f.db.Model(&model.AttendanceRecord{}).
		Where("employee_id = ? AND work_date = ?", f.employee.ID, "2024-01-10").
		Count(&records).Error)
	assert.LessOrEqual(t, records, int64(1))
	assert.Empty(t, f.events.Types())
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	f := newFixture(t)

	_, err := f.attendance().CheckOut(context.Background(), f.employee, checkOutRequest(originLat, originLon))
	assert.ErrorIs(t, err, pkgerrors.NotCheckedIn)
}

func TestCheckOut_ComputesWorkingHoursOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.attendance()

	in, err := svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)

	f.clock.Advance(8*time.Hour + 30*time.Minute + 45*time.Second)

	req := checkOutRequest(originLat, originLon)
	req.Selfie = testutil.PNGBase64(t)
	out, err := svc.CheckOut(ctx, f.employee, req)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.InDelta(t, 8.5, out.WorkingHours, 1e-9)

	var record model.AttendanceRecord
	require.NoError(t, f.db.First(&record, in.ID).Error)
	require.NotNil(t, record.CheckOutTime)
	require.NotNil(t, record.WorkingHours)
	require.NotNil(t, record.CheckOutPhotoRef)
	assert.InDelta(t, 8.5, *record.WorkingHours, 1e-9)

	f.clock.Advance(time.Hour)
	_, err = svc.CheckOut(ctx, f.employee, checkOutRequest(originLat, originLon))
	assert.ErrorIs(t, err, pkgerrors.AlreadyCheckedOut)

	assert.Equal(t, []string{queue.EventCheckedIn, queue.EventCheckedOut}, f.events.Types())
}

func TestWorkingHours(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    float64
	}{
		{name: "zero", elapsed: 0, want: 0},
		{name: "clock skew", elapsed: -5 * time.Minute, want: 0},
		{name: "under a minute", elapsed: 59 * time.Second, want: 0},
		{name: "seconds are dropped", elapsed: 90*time.Minute + 59*time.Second, want: 1.5},
		{name: "whole hours", elapsed: 8 * time.Hour, want: 8},
		{name: "hours and minutes", elapsed: 9*time.Hour + 15*time.Minute, want: 9.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkingHours(start, start.Add(tt.elapsed))
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.attendance()

	status, err := svc.Today(ctx, f.employee)
	require.NoError(t, err)
	assert.False(t, status.CheckedIn)
	assert.Equal(t, "2024-01-10", status.Date)

	_, err = svc.CheckIn(ctx, f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)

	status, err = svc.Today(ctx, f.employee)
	require.NoError(t, err)
	assert.True(t, status.CheckedIn)
	assert.False(t, status.CheckedOut)
	assert.Equal(t, f.site.ID, status.SiteID)
}
