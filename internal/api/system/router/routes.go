// Package router đăng ký route hệ thống (health check, public).
package router

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register đăng ký /system/health
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h := basehdl.NewSystemHandler()
	apirouter.RegisterRouteWithMiddleware(v1, "/system", fiber.MethodGet, "/health", nil, h.HandleHealth)
	return nil
}
