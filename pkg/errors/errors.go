package errors

import (
	stderrors "errors"
)

// Kind groups business errors by how callers should react to them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "state_conflict"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindStorage    Kind = "storage"
)

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
	Kind    Kind
}

func (d Definition) Error() string {
	return d.Message
}

// Is matches on Code so a Definition with a request-specific message still
// satisfies errors.Is against its sentinel.
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// WithMessage returns a copy carrying a more specific human-readable message.
func (d Definition) WithMessage(message string) Definition {
	d.Message = message
	return d
}

// WithDetails attaches structured details (field errors, distances, ...).
func (d Definition) WithDetails(details map[string]interface{}) DetailedError {
	return DetailedError{Definition: d, Details: details}
}

// DetailedError is a Definition plus details rendered into the error body.
type DetailedError struct {
	Details map[string]interface{}
	Definition
}

func (e DetailedError) Unwrap() error {
	return e.Definition
}

// 输入校验错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request", Kind: KindValidation}
	TitleTooShort   = Definition{Code: "TITLE_TOO_SHORT", Message: "Title must be at least 3 characters", Kind: KindValidation}
	InvalidStatus   = Definition{Code: "INVALID_STATUS", Message: "Invalid status", Kind: KindValidation}
	InvalidImage    = Definition{Code: "INVALID_IMAGE", Message: "Image must be base64 encoded JPEG, PNG, GIF or WebP", Kind: KindValidation}
	InvalidAssignee = Definition{Code: "INVALID_ASSIGNEE", Message: "One or more assignees are unknown or inactive", Kind: KindValidation}
)

// 考勤与任务状态冲突。
var (
	AlreadyCheckedIn    = Definition{Code: "ALREADY_CHECKED_IN", Message: "Already checked in today", Kind: KindConflict}
	AlreadyCheckedOut   = Definition{Code: "ALREADY_CHECKED_OUT", Message: "Already checked out today", Kind: KindConflict}
	NotCheckedIn        = Definition{Code: "NOT_CHECKED_IN", Message: "Not checked in today", Kind: KindConflict}
	ActiveTaskExists    = Definition{Code: "ACTIVE_TASK_EXISTS", Message: "Complete the active task before starting a new one", Kind: KindConflict}
	LocationTooFar      = Definition{Code: "LOCATION_TOO_FAR", Message: "Location is too far from the check-in point", Kind: KindConflict}
	AssignmentFinalized = Definition{Code: "ASSIGNMENT_FINALIZED", Message: "Assignment is already completed or cancelled", Kind: KindConflict}
	RequestInProgress   = Definition{Code: "REQUEST_IN_PROGRESS", Message: "Another request for this employee is in progress", Kind: KindConflict}
)

// 资源不存在。
var (
	InvalidSite        = Definition{Code: "INVALID_SITE", Message: "Site not found or inactive", Kind: KindNotFound}
	TaskNotFound       = Definition{Code: "TASK_NOT_FOUND", Message: "Task not found or not active", Kind: KindNotFound}
	AssignmentNotFound = Definition{Code: "ASSIGNMENT_NOT_FOUND", Message: "Assignment not found", Kind: KindNotFound}
	AdminTaskNotFound  = Definition{Code: "ADMIN_TASK_NOT_FOUND", Message: "Task not found", Kind: KindNotFound}
)

// 认证相关错误。
var (
	Unauthorized     = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized", Kind: KindAuth}
	EmployeeInactive = Definition{Code: "EMPLOYEE_INACTIVE", Message: "Employee account is inactive", Kind: KindAuth}
	Forbidden        = Definition{Code: "FORBIDDEN", Message: "Administrator role required", Kind: KindAuth}
)

// Internal is what callers see for storage and media failures.
var Internal = Definition{Code: "INTERNAL_ERROR", Message: "Internal server error", Kind: KindStorage}

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:      InvalidRequest,
	TitleTooShort.Code:       TitleTooShort,
	InvalidStatus.Code:       InvalidStatus,
	InvalidImage.Code:        InvalidImage,
	InvalidAssignee.Code:     InvalidAssignee,
	AlreadyCheckedIn.Code:    AlreadyCheckedIn,
	AlreadyCheckedOut.Code:   AlreadyCheckedOut,
	NotCheckedIn.Code:        NotCheckedIn,
	ActiveTaskExists.Code:    ActiveTaskExists,
	LocationTooFar.Code:      LocationTooFar,
	AssignmentFinalized.Code: AssignmentFinalized,
	RequestInProgress.Code:   RequestInProgress,
	InvalidSite.Code:         InvalidSite,
	TaskNotFound.Code:        TaskNotFound,
	AssignmentNotFound.Code:  AssignmentNotFound,
	AdminTaskNotFound.Code:   AdminTaskNotFound,
	Unauthorized.Code:        Unauthorized,
	EmployeeInactive.Code:    EmployeeInactive,
	Forbidden.Code:           Forbidden,
	Internal.Code:            Internal,
}

// Get 根据错误码返回 Definition，未知错误码按存储错误处理。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error", Kind: KindStorage}
}

// As extracts the Definition carried by err, if any.
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// KindOf reports the Kind of err. Anything that is not a Definition is a storage failure.
func KindOf(err error) Kind {
	if def, ok := As(err); ok {
		return def.Kind
	}
	return KindStorage
}
