package model

import "time"

// WorkDateLayout is the calendar-day key of an attendance record.
const WorkDateLayout = "2006-01-02"

// AttendanceRecord 考勤记录，每个员工每天最多一条
type AttendanceRecord struct {
	BaseModel
	CheckInTime       *time.Time `json:"check_in_time"`
	CheckOutTime      *time.Time `json:"check_out_time,omitempty"`
	CheckInLatitude   *float64   `json:"check_in_latitude,omitempty"`
	CheckInLongitude  *float64   `json:"check_in_longitude,omitempty"`
	CheckOutLatitude  *float64   `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64   `json:"check_out_longitude,omitempty"`
	CheckInPhotoRef   *string    `gorm:"type:varchar(255)" json:"check_in_photo_ref,omitempty"`
	CheckOutPhotoRef  *string    `gorm:"type:varchar(255)" json:"check_out_photo_ref,omitempty"`
	WorkingHours      *float64   `json:"working_hours,omitempty"`
	WorkDate          string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_employee_date,priority:2" json:"date"`
	EmployeeID        int64      `gorm:"not null;uniqueIndex:idx_attendance_employee_date,priority:1" json:"employee_id"`
	SiteID            int64      `gorm:"not null;index:idx_attendance_site" json:"site_id"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsOpen reports whether the employee is currently on shift.
func (r *AttendanceRecord) IsOpen() bool {
	return r.CheckInTime != nil && r.CheckOutTime == nil
}
