package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"workforce/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: errors.TitleTooShort, want: http.StatusBadRequest},
		{name: "state conflict", err: errors.ActiveTaskExists, want: http.StatusBadRequest},
		{name: "not found", err: errors.TaskNotFound, want: http.StatusNotFound},
		{name: "auth", err: errors.Unauthorized, want: http.StatusUnauthorized},
		{name: "inactive employee", err: errors.EmployeeInactive, want: http.StatusUnauthorized},
		{name: "forbidden", err: errors.Forbidden, want: http.StatusForbidden},
		{name: "wrapped definition", err: fmt.Errorf("create task: %w", errors.LocationTooFar.WithDetails(nil)), want: http.StatusBadRequest},
		{name: "storage", err: fmt.Errorf("failed to query attendance: %w", gorm.ErrInvalidTransaction), want: http.StatusInternalServerError},
		{name: "internal", err: errors.Internal, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func renderError(t *testing.T, err error) (int, Envelope, string) {
	t.Helper()

	c := app.NewContext(0)
	Error(context.Background(), c, err)

	body := string(c.Response.Body())
	var env Envelope
	require.NoError(t, json.Unmarshal(c.Response.Body(), &env), body)
	return c.Response.StatusCode(), env, body
}

func TestError_MasksStorageFailures(t *testing.T) {
	status, env, body := renderError(t, fmt.Errorf("failed to query attendance_records: %w", gorm.ErrInvalidTransaction))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.Internal.Code, env.Error.Code)
	assert.Equal(t, errors.Internal.Message, env.Error.Message)
	assert.Empty(t, env.Error.Details)
	assert.NotContains(t, body, "attendance_records")
	assert.NotContains(t, body, gorm.ErrInvalidTransaction.Error())
}

func TestError_ExposesDomainErrors(t *testing.T) {
	status, env, _ := renderError(t, errors.LocationTooFar.WithDetails(map[string]interface{}{
		"radius_meters": 5000,
	}))

	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.LocationTooFar.Code, env.Error.Code)
	assert.Equal(t, errors.LocationTooFar.Message, env.Message)
	assert.EqualValues(t, 5000, env.Error.Details["radius_meters"])

	status, env, _ = renderError(t, errors.Forbidden)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errors.Forbidden.Code, env.Error.Code)
}
