// Package router đăng ký các route thuộc domain payment.
package router

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/middleware"
	paymenthdl "soug_elwahah/internal/api/payment/handler"
	paymentsvc "soug_elwahah/internal/api/payment/service"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route /payments
func Register(service *paymentsvc.PaymentService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := paymenthdl.NewPaymentHandler(service)
		payer := middleware.RequireRoles(authmodels.RoleCustomer, authmodels.RoleAdmin)
		refunder := middleware.RequireRoles(authmodels.RoleStore, authmodels.RoleAdmin)
		admin := middleware.RequireRoles(authmodels.RoleAdmin)

		apirouter.RegisterRouteWithMiddleware(v1, "/payments", fiber.MethodPost, "", r.Secured(payer), h.HandleProcess)
		apirouter.RegisterRouteWithMiddleware(v1, "/payments", fiber.MethodGet, "/by-order/:orderId", r.Secured(), h.HandleListByOrder)
		apirouter.RegisterRouteWithMiddleware(v1, "/payments", fiber.MethodGet, "/:id", r.Secured(), h.HandleGet)
		apirouter.RegisterRouteWithMiddleware(v1, "/payments", fiber.MethodPost, "/:id/confirm", r.Secured(admin), h.HandleConfirm)
		apirouter.RegisterRouteWithMiddleware(v1, "/payments", fiber.MethodPost, "/:id/refund", r.Secured(refunder), h.HandleRefund)
		return nil
	}
}
