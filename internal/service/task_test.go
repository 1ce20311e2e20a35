package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workforce/internal/model"
	"workforce/internal/model/dto"
	"workforce/internal/queue"
	"workforce/internal/testutil"
	pkgerrors "workforce/pkg/errors"
)

func createTaskRequest(siteID int64, title string, lat, lon float64) dto.CreateTaskRequest {
	return dto.CreateTaskRequest{
		SiteID:    siteID,
		Title:     title,
		Latitude:  testutil.Float(lat),
		Longitude: testutil.Float(lon),
	}
}

// checkIn puts the fixture employee on shift at the origin.
func (f *fixture) checkIn(t *testing.T) *dto.CheckInData {
	t.Helper()

	data, err := f.attendance().CheckIn(context.Background(), f.employee, checkInRequest(f.site.ID, originLat, originLon))
	require.NoError(t, err)
	return data
}

func TestCreateTask_GeofenceAroundCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	_, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect pump", northOf(originLat, 6000), originLon))
	require.ErrorIs(t, err, pkgerrors.LocationTooFar)

	var detailed pkgerrors.DetailedError
	require.ErrorAs(t, err, &detailed)
	assert.Equal(t, int64(5000), detailed.Details["radius_meters"])
	assert.InDelta(t, 6000, detailed.Details["distance_meters"], 1)

	summary, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect pump", northOf(originLat, 1000), originLon))
	require.NoError(t, err)
	assert.Equal(t, string(model.TaskStatusActive), summary.Status)
	assert.Equal(t, "Inspect pump", summary.Title)
	assert.True(t, summary.StartTime.Equal(f.clock.Now()))
	assert.NotZero(t, summary.AttendanceID)
}

func TestCreateTask_GeofenceBoundary(t *testing.T) {
	tests := []struct {
		name    string
		meters  float64
		wantErr error
	}{
		{name: "inside", meters: 4999},
		{name: "on the boundary", meters: 5000},
		{name: "outside", meters: 5001, wantErr: pkgerrors.LocationTooFar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.checkIn(t)

			_, err := f.tasks().Create(context.Background(), f.employee,
				createTaskRequest(f.site.ID, "Boundary walk", northOf(originLat, tt.meters), originLon))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateTask_WithoutCheckInCoordinatesSkipsGeofence(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	record := model.AttendanceRecord{EmployeeID: f.employee.ID, SiteID: f.site.ID, WorkDate: "2024-01-10", CheckInTime: &now}
	require.NoError(t, f.db.Create(&record).Error)

	summary, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(f.site.ID, "Remote audit", -33.8688, 151.2093))
	require.NoError(t, err)
	assert.Equal(t, record.ID, summary.AttendanceID)
}

func TestCreateTask_OneActiveTaskAtATime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	first, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "First visit", originLat, originLon))
	require.NoError(t, err)

	_, err = f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Second visit", originLat, originLon))
	assert.ErrorIs(t, err, pkgerrors.ActiveTaskExists)

	f.clock.Advance(30 * time.Minute)
	_, err = f.tasks().Complete(ctx, f.employee, dto.CompleteTaskRequest{TaskID: first.ID})
	require.NoError(t, err)

	second, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Second visit", originLat, originLon))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, []string{
		queue.EventCheckedIn,
		queue.EventTaskCreated,
		queue.EventTaskCompleted,
		queue.EventTaskCreated,
	}, f.events.Types())
}

func TestCreateTask_PreconditionOrder(t *testing.T) {
	t.Run("title is checked before attendance", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(9999, "  ab  ", originLat, originLon))
		assert.ErrorIs(t, err, pkgerrors.TitleTooShort)
	})

	t.Run("three characters is enough", func(t *testing.T) {
		f := newFixture(t)
		f.checkIn(t)

		_, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(f.site.ID, "abc", originLat, originLon))
		assert.NoError(t, err)
	})

	t.Run("not checked in", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(9999, "Inspect pump", 0, 0))
		assert.ErrorIs(t, err, pkgerrors.NotCheckedIn)
	})

	t.Run("already checked out", func(t *testing.T) {
		f := newFixture(t)
		f.checkIn(t)
		f.clock.Advance(time.Hour)
		_, err := f.attendance().CheckOut(context.Background(), f.employee, checkOutRequest(originLat, originLon))
		require.NoError(t, err)

		_, err = f.tasks().Create(context.Background(), f.employee, createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon))
		assert.ErrorIs(t, err, pkgerrors.AlreadyCheckedOut)
	})

	t.Run("active task before site", func(t *testing.T) {
		f := newFixture(t)
		f.checkIn(t)
		_, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon))
		require.NoError(t, err)

		_, err = f.tasks().Create(context.Background(), f.employee, createTaskRequest(9999, "Inspect valve", originLat, originLon))
		assert.ErrorIs(t, err, pkgerrors.ActiveTaskExists)
	})

	t.Run("site before distance", func(t *testing.T) {
		f := newFixture(t)
		f.checkIn(t)

		_, err := f.tasks().Create(context.Background(), f.employee, createTaskRequest(9999, "Inspect pump", northOf(originLat, 9000), originLon))
		assert.ErrorIs(t, err, pkgerrors.InvalidSite)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		f := newFixture(t)
		f.checkIn(t)

		_, err := f.tasks().Create(context.Background(), f.employee, dto.CreateTaskRequest{SiteID: f.site.ID, Title: "Inspect pump"})
		assert.ErrorIs(t, err, pkgerrors.InvalidRequest)
	})
}

func TestCreateTask_MediaFailureLeavesNoTask(t *testing.T) {
	f := newFixture(t)
	f.checkIn(t)
	f.deps.Media = testutil.FailingMediaStore{}

	req := createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon)
	req.Image = testutil.PNGBase64(t)

	_, err := f.tasks().Create(context.Background(), f.employee, req)
	require.ErrorIs(t, err, testutil.ErrMediaDown)
	assert.Equal(t, pkgerrors.KindStorage, pkgerrors.KindOf(err))

	var count int64
	require.NoError(t, f.db.Model(&model.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskActiveIndex(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	newTask := func(status model.TaskStatus) *model.Task {
		return &model.Task{
			EmployeeID: f.employee.ID, SiteID: f.site.ID, AttendanceID: 1,
			Title: "Inspect pump", Status: status, StartTime: now,
		}
	}

	require.NoError(t, f.db.Create(newTask(model.TaskStatusCompleted)).Error)
	require.NoError(t, f.db.Create(newTask(model.TaskStatusCancelled)).Error)
	require.NoError(t, f.db.Create(newTask(model.TaskStatusActive)).Error)

	err := f.db.Create(newTask(model.TaskStatusActive)).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), err.Error())
}

func TestCreateTask_ConcurrentInsertMapsToActiveTaskExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkedIn := f.checkIn(t)

	f.interleaveInsert(t, "tasks", func(tx *gorm.DB) error {
		return tx.Create(&model.Task{
			EmployeeID:   f.employee.ID,
			SiteID:       f.site.ID,
			AttendanceID: checkedIn.ID,
			Title:        "Inspect valve",
			Status:       model.TaskStatusActive,
			StartTime:    f.clock.Now(),
		}).Error
	})

	_, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon))
	require.ErrorIs(t, err, pkgerrors.ActiveTaskExists)
	assert.Equal(t, pkgerrors.KindConflict, pkgerrors.KindOf(err))

	var active int64
	require.NoError(t, f.db.Model(&model.Task{}).
		Where("employee_id = ? AND status = ?", f.employee.ID, model.TaskStatusActive).
		Count(&active).Error)
	assert.LessOrEqual(t, active, int64(1))
	assert.NotContains(t, f.events.Types(), queue.EventTaskCreated)
}

func TestCompleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	req := createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon)
	req.Description = "Check pressure"
	created, err := f.tasks().Create(ctx, f.employee, req)
	require.NoError(t, err)

	f.clock.Advance(45*time.Minute + 30*time.Second)

	done, err := f.tasks().Complete(ctx, f.employee, dto.CompleteTaskRequest{
		TaskID:          created.ID,
		CompletionNotes: "Pressure normal",
		CompletionImage: testutil.PNGBase64(t),
		Latitude:        testutil.Float(originLat),
		Longitude:       testutil.Float(originLon),
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.TaskStatusCompleted), done.Status)
	assert.Equal(t, int64(45), done.DurationMinutes)
	require.NotNil(t, done.ImageRef)
	assert.Contains(t, f.media.Objects, *done.ImageRef)

	var stored model.Task
	require.NoError(t, f.db.First(&stored, created.ID).Error)
	assert.Equal(t, model.TaskStatusCompleted, stored.Status)
	assert.Equal(t, "Check pressure\n\nCompletion Notes: Pressure normal", stored.Description)
	require.NotNil(t, stored.EndTime)
	assert.True(t, stored.EndTime.Equal(f.clock.Now()))
	require.NotNil(t, stored.EndLatitude)

	_, err = f.tasks().Complete(ctx, f.employee, dto.CompleteTaskRequest{TaskID: created.ID})
	assert.ErrorIs(t, err, pkgerrors.TaskNotFound)
}

func TestCompleteTask_OtherEmployeesTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	created, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon))
	require.NoError(t, err)

	other := f.newEmployee(t, "E002", model.EmployeeRoleStaff)
	_, err = f.tasks().Complete(ctx, other, dto.CompleteTaskRequest{TaskID: created.ID})
	assert.ErrorIs(t, err, pkgerrors.TaskNotFound)

	_, err = f.tasks().Complete(ctx, f.employee, dto.CompleteTaskRequest{TaskID: created.ID + 100})
	assert.ErrorIs(t, err, pkgerrors.TaskNotFound)
}

func TestAppendCompletionNotes(t *testing.T) {
	assert.Equal(t, "Completion Notes: done", appendCompletionNotes("", "done"))
	assert.Equal(t, "desc\n\nCompletion Notes: done", appendCompletionNotes("desc", "done"))
}

func TestCancelTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	created, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect pump", originLat, originLon))
	require.NoError(t, err)

	cancelled, err := f.tasks().Cancel(ctx, f.employee, dto.CancelTaskRequest{TaskID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, string(model.TaskStatusCancelled), cancelled.Status)
	require.NotNil(t, cancelled.EndTime)

	_, err = f.tasks().Cancel(ctx, f.employee, dto.CancelTaskRequest{TaskID: created.ID})
	assert.ErrorIs(t, err, pkgerrors.TaskNotFound)

	_, err = f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Inspect valve", originLat, originLon))
	assert.NoError(t, err)
}

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.checkIn(t)

	first, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "First visit", originLat, originLon))
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	_, err = f.tasks().Complete(ctx, f.employee, dto.CompleteTaskRequest{TaskID: first.ID})
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	second, err := f.tasks().Create(ctx, f.employee, createTaskRequest(f.site.ID, "Second visit", originLat, originLon))
	require.NoError(t, err)

	all, err := f.tasks().List(ctx, f.employee, dto.ListTasksQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	active, err := f.tasks().List(ctx, f.employee, dto.ListTasksQuery{Status: string(model.TaskStatusActive)})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	limited, err := f.tasks().List(ctx, f.employee, dto.ListTasksQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	others, err := f.tasks().List(ctx, f.admin, dto.ListTasksQuery{})
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = f.tasks().List(ctx, f.employee, dto.ListTasksQuery{Status: "paused"})
	assert.ErrorIs(t, err, pkgerrors.InvalidRequest)
}
