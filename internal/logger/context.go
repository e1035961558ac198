package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey là type cho context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
	UserIDKey    ContextKey = "userID"
	RoleKey      ContextKey = "activeRole"
)

// WithContext trả về logger entry kèm request/user từ context
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)
	if ctx == nil {
		return entry
	}
	if v := ctx.Value(RequestIDKey); v != nil {
		entry = entry.WithField("request_id", v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		entry = entry.WithField("user_id", v)
	}
	if v := ctx.Value(RoleKey); v != nil {
		entry = entry.WithField("role", v)
	}
	return entry
}

// WithRequest trả về logger entry với thông tin request từ Fiber
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := GetAppLogger().WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})
	if rid := c.GetRespHeader("X-Request-ID"); rid != "" {
		entry = entry.WithField("request_id", rid)
	} else if rid := c.Get("X-Request-ID"); rid != "" {
		entry = entry.WithField("request_id", rid)
	}
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		entry = entry.WithField("user_id", uid)
	}
	return entry
}

// WithModule trả về logger entry gắn tên module
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}
