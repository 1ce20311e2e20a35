package utils

import (
	"time"
)

const workDateLayout = "2006-01-02"

// WorkDate 返回 t 在 loc 时区下的日历日期（YYYY-MM-DD）
func WorkDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(workDateLayout)
}

// WholeMinutes 两个时间点之间的整分钟数，不小于 0
func WholeMinutes(from, to time.Time) int64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int64(d / time.Minute)
}
