package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
	"go.uber.org/zap"

	"workforce/internal/model"
	pkgerrors "workforce/pkg/errors"
	"workforce/pkg/logger"
	"workforce/pkg/response"
	"workforce/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
	// identityCtxKey 保存解析后的 model.EmployeeIdentity
	identityCtxKey = "employee_identity"
)

var (
	authMiddleware *jwt.HertzJWTMiddleware
)

// IdentityResolver 将 token 中的员工 ID 解析为当前身份
type IdentityResolver interface {
	Resolve(ctx context.Context, employeeID int64) (model.EmployeeIdentity, error)
}

func initAuthMiddleware() error {
	secret := token.Secret()
	if len(secret) == 0 {
		return fmt.Errorf("token secret not initialized, call token.Init() first")
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "workforce",
		Key:         secret,
		Timeout:     token.TTL(),
		IdentityKey: IdentityKey,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			employeeID, err := token.EmployeeIDFromClaims(jwt.ExtractClaims(ctx, c))
			if err != nil {
				return nil
			}
			return employeeID
		},

		// 无论 token 缺失、过期还是格式错误，一律按 401 返回
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			logger.For(ctx).Debug("Rejected bearer token",
				zap.Int("code", code),
				zap.String("reason", message),
			)
			response.Error(ctx, c, pkgerrors.Unauthorized)
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	})
	if err != nil {
		return fmt.Errorf("failed to build jwt middleware: %w", err)
	}

	authMiddleware = mw
	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// IdentityMiddleware 必须放在 AuthMiddleware 之后；把员工解析为 EmployeeIdentity
// 并拒绝已停用的账号
func IdentityMiddleware(resolver IdentityResolver) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		v, ok := c.Get(IdentityKey)
		employeeID, isID := v.(int64)
		if !ok || !isID || employeeID <= 0 {
			response.Error(ctx, c, pkgerrors.Unauthorized)
			c.Abort()
			return
		}

		identity, err := resolver.Resolve(ctx, employeeID)
		if err != nil {
			response.Error(ctx, c, err)
			c.Abort()
			return
		}

		c.Set(identityCtxKey, identity)
		c.Next(ctx)
	}
}

// AdminOnly 只允许管理员继续
func AdminOnly() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(ctx, c, pkgerrors.Unauthorized)
			c.Abort()
			return
		}
		if !identity.IsAdmin() {
			response.Error(ctx, c, pkgerrors.Forbidden)
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

// CurrentIdentity 取出 IdentityMiddleware 写入的身份
func CurrentIdentity(c *app.RequestContext) (model.EmployeeIdentity, bool) {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return model.EmployeeIdentity{}, false
	}
	identity, ok := v.(model.EmployeeIdentity)
	return identity, ok
}

// MustIdentity 用于挂在 IdentityMiddleware 之后的 handler
func MustIdentity(ctx context.Context, c *app.RequestContext) (model.EmployeeIdentity, bool) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		response.Error(ctx, c, pkgerrors.Unauthorized)
		c.Abort()
		return identity, false
	}
	return identity, true
}
