package basehdl

import (
	"context"
	"time"

	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"github.com/gofiber/fiber/v3"
)

// SystemHandler xử lý các route hệ thống
type SystemHandler struct{}

// NewSystemHandler tạo SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// HandleHealth kiểm tra API và kết nối MongoDB
// @Router /system/health [get]
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	services := fiber.Map{"api": "ok"}
	healthData := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}

	if global.MongoDB_Session == nil {
		healthData["status"] = "degraded"
		services["database"] = "not_initialized"
		return HandleResponse(c, healthData, nil)
	}
	if err := global.MongoDB_Session.Ping(ctx, nil); err != nil {
		healthData["status"] = "degraded"
		services["database"] = "error"
		healthData["database_error"] = err.Error()
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{
			"code":    common.StatusServiceUnavailable,
			"message": "Hệ thống đang gặp sự cố",
			"data":    healthData,
			"status":  "error",
		})
	}
	services["database"] = "ok"
	return HandleResponse(c, healthData, nil)
}
