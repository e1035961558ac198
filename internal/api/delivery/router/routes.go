// Package router đăng ký các route thuộc domain delivery.
package router

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	deliveryhdl "soug_elwahah/internal/api/delivery/handler"
	deliverysvc "soug_elwahah/internal/api/delivery/service"
	"soug_elwahah/internal/api/middleware"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route /deliveries
func Register(service *deliverysvc.DeliveryService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := deliveryhdl.NewDeliveryHandler(service)
		driverOrAdmin := middleware.RequireRoles(authmodels.RoleDriver, authmodels.RoleAdmin)

		apirouter.RegisterRouteWithMiddleware(v1, "/deliveries", fiber.MethodGet, "/by-order/:orderId", r.Secured(), h.HandleGetByOrder)
		apirouter.RegisterRouteWithMiddleware(v1, "/deliveries", fiber.MethodGet, "/:id", r.Secured(), h.HandleGet)
		apirouter.RegisterRouteWithMiddleware(v1, "/deliveries", fiber.MethodPut, "/:id/status", r.Secured(driverOrAdmin), h.HandleUpdateStatus)
		return nil
	}
}
