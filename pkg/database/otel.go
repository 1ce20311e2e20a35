package database

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey      = "otel:span"
	startTimeKey = "otel:start_time"
)

var (
	// 数据库相关指标，首次使用时从全局 MeterProvider 创建
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
	metricsOnce     sync.Once
)

func initMetrics() {
	meter := otel.Meter("workforce.gorm")

	dbQueriesTotal, _ = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database statements"),
		metric.WithUnit("{query}"),
	)

	dbQueryDuration, _ = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database statement duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
}

// PluginConfig 插件配置
type PluginConfig struct {
	ServiceName   string
	DBSystem      attribute.KeyValue
	EnableMetrics bool
	MaxSQLLength  int
}

func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:   "workforce",
		DBSystem:      semconv.DBSystemPostgreSQL,
		EnableMetrics: true,
		MaxSQLLength:  500,
	}
}

// OTELPlugin 为每条 GORM 语句创建 span 并记录耗时
type OTELPlugin struct {
	tracer trace.Tracer
	config PluginConfig
}

func NewOTELPlugin(config PluginConfig) *OTELPlugin {
	if config.ServiceName == "" {
		config.ServiceName = "workforce"
	}
	if config.MaxSQLLength <= 0 {
		config.MaxSQLLength = 500
	}
	if !config.DBSystem.Valid() {
		config.DBSystem = semconv.DBSystemPostgreSQL
	}

	return &OTELPlugin{
		tracer: otel.Tracer(config.ServiceName + ".gorm"),
		config: config,
	}
}

func (p *OTELPlugin) Name() string {
	return "workforce:otel"
}

// Initialize 注册回调
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		register func(name string, before, after func(*gorm.DB)) error
		op       string
	}{
		{op: "select", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", after)
		}},
		{op: "insert", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", after)
		}},
		{op: "update", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", after)
		}},
		{op: "delete", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", after)
		}},
		{op: "row", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(name+":after", after)
		}},
		{op: "raw", register: func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(name+":after", after)
		}},
	}

	for _, h := range hooks {
		op := h.op
		if err := h.register("otel:"+op, p.before(op), p.after(op)); err != nil {
			return err
		}
	}

	return nil
}

func (p *OTELPlugin) before(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.Context == nil {
			db.Statement.Context = context.Background()
		}

		ctx, span := p.tracer.Start(db.Statement.Context, "db."+op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(p.config.DBSystem, semconv.DBOperation(op)),
		)

		db.InstanceSet(startTimeKey, time.Now())
		db.InstanceSet(spanKey, span)
		db.Statement.Context = ctx
	}
}

func (p *OTELPlugin) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(spanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if table := db.Statement.Table; table != "" {
			span.SetAttributes(semconv.DBSQLTable(table))
		}
		span.SetAttributes(
			semconv.DBStatement(p.truncate(db.Statement.SQL.String())),
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
		)

		status := "success"
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			status = "not_found"
			span.SetStatus(codes.Ok, "record not found")
		default:
			status = "error"
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		if !p.config.EnableMetrics {
			return
		}

		metricsOnce.Do(initMetrics)

		var elapsed float64
		if sv, ok := db.InstanceGet(startTimeKey); ok {
			if start, ok := sv.(time.Time); ok {
				elapsed = time.Since(start).Seconds()
			}
		}

		attrs := metric.WithAttributes(
			attribute.String("db.operation", op),
			attribute.String("db.status", status),
		)
		ctx := db.Statement.Context
		if dbQueriesTotal != nil {
			dbQueriesTotal.Add(ctx, 1, attrs)
		}
		if dbQueryDuration != nil {
			dbQueryDuration.Record(ctx, elapsed, attrs)
		}
	}
}

// truncate 截断过长的 SQL，参数以占位符形式保留，不记录值
func (p *OTELPlugin) truncate(sql string) string {
	sql = strings.TrimSpace(sql)
	if len(sql) > p.config.MaxSQLLength {
		return sql[:p.config.MaxSQLLength] + "..."
	}
	return sql
}

// WithOTELPlugin 为 GORM 添加 OpenTelemetry 插件
func WithOTELPlugin(db *gorm.DB, config PluginConfig) error {
	return db.Use(NewOTELPlugin(config))
}
