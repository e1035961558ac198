// Package middleware chứa middleware xác thực JWT (dựng Actor cho request) và kiểm tra vai trò.
package middleware

import (
	"context"
	"strings"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

const (
	actorLocalsKey = "actor"
	// ActiveRoleHeader cho phép chọn vai trò đang dùng trong tập vai trò của token
	ActiveRoleHeader = "X-Active-Role"
)

// TokenParser là phần của token service mà middleware cần
type TokenParser interface {
	Parse(token string, overrideRole string) (authmodels.Actor, error)
}

// BearerToken tách token từ header "Authorization: Bearer <token>"
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", common.ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", common.ErrTokenInvalid
	}
	return strings.TrimSpace(parts[1]), nil
}

// AuthMiddleware xác thực JWT, dựng Actor và gắn vào Locals + context của request
func AuthMiddleware(tokens TokenParser) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, err := BearerToken(c.Get("Authorization"))
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Thiếu hoặc sai định dạng Authorization header")
			return HandleErrorResponse(c, err)
		}

		actor, err := tokens.Parse(token, c.Get(ActiveRoleHeader))
		if err != nil {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Warn("❌ [AUTH] Token không hợp lệ")
			return HandleErrorResponse(c, err)
		}

		c.Locals(actorLocalsKey, actor)
		c.Locals("userID", actor.UserID.Hex())

		ctx := context.WithValue(c.Context(), logger.UserIDKey, actor.UserID.Hex())
		ctx = context.WithValue(ctx, logger.RoleKey, string(actor.ActiveRole))
		if rid := c.GetRespHeader("X-Request-ID"); rid != "" {
			ctx = context.WithValue(ctx, logger.RequestIDKey, rid)
		}
		c.SetContext(ctx)
		return c.Next()
	}
}

// RequireRoles chỉ cho qua khi vai trò đang dùng thuộc danh sách
func RequireRoles(roles ...authmodels.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}
		for _, r := range roles {
			if actor.Is(r) {
				return c.Next()
			}
		}
		return HandleErrorResponse(c, common.WithDetails(common.ErrForbidden, map[string]string{"role": string(actor.ActiveRole)}))
	}
}

// ActorFrom lấy Actor đã được AuthMiddleware gắn vào request
func ActorFrom(c fiber.Ctx) (authmodels.Actor, bool) {
	actor, ok := c.Locals(actorLocalsKey).(authmodels.Actor)
	return actor, ok
}
