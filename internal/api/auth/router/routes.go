// Package router đăng ký các route thuộc domain auth.
package router

import (
	authhdl "soug_elwahah/internal/api/auth/handler"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register đăng ký route auth lên v1
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h := authhdl.NewAuthHandler()
	apirouter.RegisterRouteWithMiddleware(v1, "/auth", fiber.MethodGet, "/me", r.Secured(), h.HandleMe)
	return nil
}
