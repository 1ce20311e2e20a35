package dto

import "time"

// ========== Attendance 相关 DTO ==========

const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

// AttendanceRequest POST /v1/attendance
type AttendanceRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Action    string   `json:"action" validate:"required,oneof=check_in check_out"`
	Selfie    string   `json:"selfie"`
	SiteID    int64    `json:"site_id" validate:"gte=0"`
}

// CheckInData 签到结果
type CheckInData struct {
	CheckInTime time.Time `json:"check_in_time"`
	PhotoRef    *string   `json:"photo_ref,omitempty"`
	Date        string    `json:"date"`
	ID          int64     `json:"attendance_id"`
	SiteID      int64     `json:"site_id"`
}

// CheckOutData 签退结果
type CheckOutData struct {
	CheckInTime  time.Time `json:"check_in_time"`
	CheckOutTime time.Time `json:"check_out_time"`
	Date         string    `json:"date"`
	WorkingHours float64   `json:"working_hours"`
	ID           int64     `json:"attendance_id"`
}

// TodayAttendanceData GET /v1/attendance/today
type TodayAttendanceData struct {
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	WorkingHours *float64   `json:"working_hours,omitempty"`
	Date         string     `json:"date"`
	ID           int64      `json:"attendance_id,omitempty"`
	SiteID       int64      `json:"site_id,omitempty"`
	CheckedIn    bool       `json:"checked_in"`
	CheckedOut   bool       `json:"checked_out"`
}
