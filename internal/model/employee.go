package model

// EmployeeStatus 员工状态
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// EmployeeRole 员工角色
type EmployeeRole string

const (
	EmployeeRoleStaff EmployeeRole = "employee"
	EmployeeRoleAdmin EmployeeRole = "admin"
)

// Employee is the subset of the employee record this service reads.
type Employee struct {
	BaseModel
	Code   string         `gorm:"uniqueIndex;type:varchar(32);not null" json:"code"`
	Name   string         `gorm:"type:varchar(128);not null" json:"name"`
	Role   EmployeeRole   `gorm:"type:varchar(16);not null;default:'employee'" json:"role"`
	Status EmployeeStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_employees_status" json:"status"`
}

func (Employee) TableName() string {
	return "employees"
}

// EmployeeIdentity is the verified actor of a request. It is resolved once from
// the bearer token and passed explicitly into every service call.
type EmployeeIdentity struct {
	Name   string         `json:"name"`
	Status EmployeeStatus `json:"status"`
	Role   EmployeeRole   `json:"role"`
	ID     int64          `json:"id"`
}

func (i EmployeeIdentity) IsAdmin() bool {
	return i.Role == EmployeeRoleAdmin
}

func (i EmployeeIdentity) IsActive() bool {
	return i.Status == EmployeeStatusActive
}
