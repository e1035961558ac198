package router

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================================
// CÁCH ĐĂNG KÝ MIDDLEWARE CHO ROUTE
// ============================================================================
//
// Luôn đăng ký qua RegisterRouteWithMiddleware. Middleware được gắn vào chính
// route đó (không Use() lên cả group), nên route khác cùng prefix không bị ảnh hưởng,
// ví dụ GET /catalog/stores/:storeId/products (public) và POST /catalog/products (cần JWT).
//
// ============================================================================

// RoutePrefix chứa các prefix của API
type RoutePrefix struct {
	Base string // /api
	V1   string // /api/v1
}

func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Router giữ app và bộ middleware dùng chung khi các domain đăng ký route
type Router struct {
	app  *fiber.App
	auth fiber.Handler
}

func NewRouter(app *fiber.App, auth fiber.Handler) *Router {
	return &Router{app: app, auth: auth}
}

// Auth trả về middleware xác thực JWT
func (r *Router) Auth() fiber.Handler {
	return r.auth
}

// Secured trả về chuỗi middleware: xác thực JWT rồi các middleware bổ sung
func (r *Router) Secured(extra ...fiber.Handler) []fiber.Handler {
	return append([]fiber.Handler{r.auth}, extra...)
}

// RegisterRouteWithMiddleware đăng ký một route với middleware riêng của route đó
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	routeGroup := router.Group(prefix)

	chain := make([]fiber.Handler, 0, len(middlewares)+1)
	chain = append(chain, middlewares...)
	chain = append(chain, handler)

	switch method {
	case fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodPatch:
		routeGroup.Add([]string{method}, path, chain[0], chain[1:]...)
	}
}

// RegisterFunc là hàm đăng ký route của một domain
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes tạo group /api/v1 và gọi lần lượt các RegisterFunc
func SetupRoutes(app *fiber.App, auth fiber.Handler, regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := app.Group(prefix.V1)
	r := NewRouter(app, auth)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
