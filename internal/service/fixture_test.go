package service

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workforce/internal/cache"
	"workforce/internal/model"
	"workforce/internal/testutil"
	"workforce/pkg/geo"
)

// Scenario coordinates: Bengaluru city centre.
const (
	originLat = 12.9716
	originLon = 77.5946
)

type fixture struct {
	db       *gorm.DB
	clock    *testutil.Clock
	media    *testutil.MediaStore
	events   *testutil.Publisher
	locker   *cache.MemoryLocker
	deps     Deps
	employee model.EmployeeIdentity
	admin    model.EmployeeIdentity
	site     *model.Site
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:     db,
		clock:  testutil.NewClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)),
		media:  testutil.NewMediaStore(),
		events: &testutil.Publisher{},
		locker: cache.NewMemoryLocker(),
	}

	f.deps = Deps{
		DB:             db,
		Media:          f.media,
		Locker:         f.locker,
		Events:         f.events,
		Now:            f.clock.Now,
		Location:       time.UTC,
		GeofenceRadius: geo.DefaultRadiusMeters,
		LockTTL:        5 * time.Second,
		MediaMaxBytes:  1 << 20,
	}

	f.employee = f.newEmployee(t, "E001", model.EmployeeRoleStaff)
	f.admin = f.newEmployee(t, "A001", model.EmployeeRoleAdmin)
	f.site = testutil.CreateSite(t, db, "S1", true, testutil.Float(originLat), testutil.Float(originLon))

	return f
}

func (f *fixture) newEmployee(t *testing.T, code string, role model.EmployeeRole) model.EmployeeIdentity {
	t.Helper()

	e := testutil.CreateEmployee(t, f.db, code, role, model.EmployeeStatusActive)
	return model.EmployeeIdentity{ID: e.ID, Name: e.Name, Role: e.Role, Status: e.Status}
}

func (f *fixture) attendance() *AttendanceService {
	return NewAttendanceService(f.deps)
}

func (f *fixture) tasks() *TaskService {
	return NewTaskService(f.deps)
}

func (f *fixture) assignments() *AssignmentService {
	return NewAssignmentService(f.deps)
}

func (f *fixture) adminTasks() *AdminTaskService {
	return NewAdminTaskService(f.deps)
}

// northOf returns the latitude that lies meters due north of lat.
func northOf(lat, meters float64) float64 {
	return lat + meters/geo.EarthRadiusMeters*180/math.Pi
}

// interleaveInsert runs insert inside the caller's transaction right before the
// first INSERT into table, the way a concurrent request would slip in after the
// service's precondition checks.
func (f *fixture) interleaveInsert(t *testing.T, table string, insert func(tx *gorm.DB) error) {
	t.Helper()

	var once sync.Once
	err := f.db.Callback().Create().Before("gorm:create").Register("test:interleave_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		once.Do(func() {
			if err := insert(tx.Session(&gorm.Session{NewDB: true})); err != nil {
				t.Errorf("competing insert into %s: %v", table, err)
			}
		})
	})
	require.NoError(t, err)
}
