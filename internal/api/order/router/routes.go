// Package router đăng ký các route thuộc domain order.
package router

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/middleware"
	orderhdl "soug_elwahah/internal/api/order/handler"
	ordersvc "soug_elwahah/internal/api/order/service"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route /orders.
// Quyền chi tiết (chủ đơn, chủ cửa hàng, chính sách chấp nhận giá) do service quyết định.
func Register(service *ordersvc.OrderService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := orderhdl.NewOrderHandler(service)
		customer := middleware.RequireRoles(authmodels.RoleCustomer)
		driver := middleware.RequireRoles(authmodels.RoleDriver)

		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "", r.Secured(customer), h.HandleCreate)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodGet, "", r.Secured(), h.HandleList)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodGet, "/:id", r.Secured(), h.HandleGet)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPut, "/:id/status", r.Secured(), h.HandleUpdateStatus)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "/:id/cancel", r.Secured(), h.HandleCancel)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "/:id/rating", r.Secured(customer), h.HandleRate)

		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "/:id/bids", r.Secured(driver), h.HandlePlaceBid)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPut, "/:id/bids", r.Secured(driver), h.HandleUpdateBid)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodDelete, "/:id/bids", r.Secured(driver), h.HandleWithdrawBid)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "/:id/bids/accept", r.Secured(), h.HandleAcceptOwnBid)
		apirouter.RegisterRouteWithMiddleware(v1, "/orders", fiber.MethodPost, "/:id/bids/:driverId/select", r.Secured(), h.HandleSelectBid)
		return nil
	}
}
