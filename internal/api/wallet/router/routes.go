// Package router đăng ký các route thuộc domain wallet.
package router

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/middleware"
	apirouter "soug_elwahah/internal/api/router"
	wallethdl "soug_elwahah/internal/api/wallet/handler"
	walletsvc "soug_elwahah/internal/api/wallet/service"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route /wallet
func Register(service *walletsvc.WalletService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := wallethdl.NewWalletHandler(service)
		admin := middleware.RequireRoles(authmodels.RoleAdmin)

		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodGet, "/me", r.Secured(), h.HandleGetMine)
		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodGet, "/me/transactions", r.Secured(), h.HandleMyTransactions)
		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodGet, "/me/stats", r.Secured(), h.HandleMyStats)

		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodPost, "/:userId/add-funds", r.Secured(admin), h.HandleAddFunds)
		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodPost, "/:userId/deduct-funds", r.Secured(admin), h.HandleDeductFunds)
		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodPost, "/:userId/freeze", r.Secured(admin), h.HandleFreeze)
		apirouter.RegisterRouteWithMiddleware(v1, "/wallet", fiber.MethodPost, "/:userId/unfreeze", r.Secured(admin), h.HandleUnfreeze)
		return nil
	}
}
