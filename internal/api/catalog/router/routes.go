// Package router đăng ký các route thuộc domain catalog.
package router

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	cataloghdl "soug_elwahah/internal/api/catalog/handler"
	catalogsvc "soug_elwahah/internal/api/catalog/service"
	"soug_elwahah/internal/api/middleware"
	apirouter "soug_elwahah/internal/api/router"

	"github.com/gofiber/fiber/v3"
)

// Register trả về RegisterFunc đăng ký route catalog
func Register(service *catalogsvc.CatalogService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		h := cataloghdl.NewCatalogHandler(service)
		storeOrAdmin := middleware.RequireRoles(authmodels.RoleStore, authmodels.RoleAdmin)

		apirouter.RegisterRouteWithMiddleware(v1, "/catalog", fiber.MethodPost, "/stores", r.Secured(storeOrAdmin), h.HandleCreateStore)
		apirouter.RegisterRouteWithMiddleware(v1, "/catalog", fiber.MethodPost, "/products", r.Secured(storeOrAdmin), h.HandleCreateProduct)
		apirouter.RegisterRouteWithMiddleware(v1, "/catalog", fiber.MethodGet, "/stores/:storeId/products", nil, h.HandleListProducts)
		apirouter.RegisterRouteWithMiddleware(v1, "/catalog", fiber.MethodPut, "/products/:id/stock", r.Secured(storeOrAdmin), h.HandleSetStock)
		return nil
	}
}
