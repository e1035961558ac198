// Package router đăng ký các route thuộc domain notification.
package router

import (
	notifhdl "soug_elwahah/internal/api/notification/handler"
	notifsvc "soug_elwahah/internal/api/notification/service"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route notification (mọi role đã đăng nhập)
func Register(service *notifsvc.NotificationService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := notifhdl.NewNotificationHandler(service)

		apirouter.RegisterRouteWithMiddleware(v1, "/notifications", fiber.MethodGet, "", r.Secured(), h.HandleList)
		apirouter.RegisterRouteWithMiddleware(v1, "/notifications", fiber.MethodGet, "/preferences", r.Secured(), h.HandleGetPreferences)
		apirouter.RegisterRouteWithMiddleware(v1, "/notifications", fiber.MethodPut, "/preferences", r.Secured(), h.HandleUpdatePreferences)
		apirouter.RegisterRouteWithMiddleware(v1, "/notifications", fiber.MethodPut, "/:id/read", r.Secured(), h.HandleMarkRead)
		return nil
	}
}
