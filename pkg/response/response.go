package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"workforce/pkg/errors"
	"workforce/pkg/logger"
)

// Envelope 统一的响应格式
type Envelope struct {
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	Message string       `json:"message"`
	Success bool         `json:"success"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// StatusOf maps an error onto the HTTP status callers should see.
func StatusOf(err error) int {
	def, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	if def.Code == errors.Forbidden.Code {
		return http.StatusForbidden
	}

	switch def.Kind {
	case errors.KindValidation, errors.KindConflict:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error 返回错误响应，存储类错误记录完整日志后统一返回 INTERNAL_ERROR
func Error(ctx context.Context, c *app.RequestContext, err error) {
	statusCode := StatusOf(err)

	detail := ErrorDetail{Code: errors.Internal.Code, Message: errors.Internal.Message}
	if def, ok := errors.As(err); ok && statusCode < http.StatusInternalServerError {
		detail.Code = def.Code
		detail.Message = def.Message

		var detailed errors.DetailedError
		if stderrors.As(err, &detailed) {
			detail.Details = detailed.Details
		}
	} else {
		logger.For(ctx).Error("Request failed",
			zap.String("method", string(c.Method())),
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
	}

	c.JSON(statusCode, Envelope{
		Success: false,
		Message: detail.Message,
		Error:   &detail,
	})
}

func Success(ctx context.Context, c *app.RequestContext, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(ctx context.Context, c *app.RequestContext, message string, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// BindError reports a body that could not be decoded at all.
func BindError(ctx context.Context, c *app.RequestContext, err error) {
	Error(ctx, c, errors.InvalidRequest.WithDetails(map[string]interface{}{
		"body": err.Error(),
	}))
}

func MethodNotAllowed(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusMethodNotAllowed, Envelope{
		Success: false,
		Message: "Method not allowed",
		Error:   &ErrorDetail{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"},
	})
}

func NotFound(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusNotFound, Envelope{
		Success: false,
		Message: "Route not found",
		Error:   &ErrorDetail{Code: "ROUTE_NOT_FOUND", Message: "Route not found"},
	})
}
