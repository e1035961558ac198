// Package authhdl chứa HTTP handler cho domain auth.
package authhdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"

	"github.com/gofiber/fiber/v3"
)

// AuthHandler trả thông tin người dùng hiện tại từ token
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// HandleMe trả về Actor của request: userId, roles, activeRole
// @Router /auth/me [get]
func (h *AuthHandler) HandleMe(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		return basehdl.HandleResponse(c, actor, err)
	})
}
