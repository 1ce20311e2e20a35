// Package testutil holds in-memory doubles shared by service and handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"workforce/internal/model"
	"workforce/internal/queue"
	"workforce/storage/database"
	"workforce/utils"
)

// NewDB 打开独立的内存 SQLite 并执行与生产相同的迁移
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 单连接，事务串行化，内存库随连接存活
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Clock 可手动推进的时钟
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// MediaStore 内存图片存储
type MediaStore struct {
	Objects map[string][]byte
	mu      sync.Mutex
	seq     int
}

func NewMediaStore() *MediaStore {
	return &MediaStore{Objects: make(map[string][]byte)}
}

func (m *MediaStore) Save(_ context.Context, img *utils.DecodedImage, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	ref := fmt.Sprintf("%s_%04d%s", prefix, m.seq, img.Ext)
	m.Objects[ref] = img.Data
	return ref, nil
}

func (m *MediaStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// ErrMediaDown is returned by FailingMediaStore.
var ErrMediaDown = errors.New("media store unavailable")

type FailingMediaStore struct{}

func (FailingMediaStore) Save(context.Context, *utils.DecodedImage, string) (string, error) {
	return "", ErrMediaDown
}

// Publisher 记录已发布的事件
type Publisher struct {
	events []queue.Event
	mu     sync.Mutex
}

func (p *Publisher) Publish(_ context.Context, event queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *Publisher) Events() []queue.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.Event(nil), p.events...)
}

// CreateEmployee 插入一名员工
func CreateEmployee(t *testing.T, db *gorm.DB, code string, role model.EmployeeRole, status model.EmployeeStatus) *model.Employee {
	t.Helper()

	e := &model.Employee{Code: code, Name: "Employee " + code, Role: role, Status: status}
	require.NoError(t, db.Create(e).Error)
	return e
}

// CreateSite 插入一个工作地点
func CreateSite(t *testing.T, db *gorm.DB, name string, active bool, lat, lon *float64) *model.Site {
	t.Helper()

	s := &model.Site{Name: name, Active: active, Latitude: lat, Longitude: lon}
	require.NoError(t, db.Create(s).Error)
	return s
}

// Float 取地址
func Float(v float64) *float64 {
	return &v
}

// PNGBase64 返回一张 2x2 PNG 的 data URI
func PNGBase64(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
