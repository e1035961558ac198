// Package notifhdl chứa HTTP handler cho hộp thư và cấu hình thông báo.
package notifhdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	notifdto "soug_elwahah/internal/api/notification/dto"
	notifsvc "soug_elwahah/internal/api/notification/service"

	"github.com/gofiber/fiber/v3"
)

type NotificationHandler struct {
	service *notifsvc.NotificationService
}

func NewNotificationHandler(service *notifsvc.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// HandleList liệt kê thông báo của user hiện tại (?unread=true chỉ lấy chưa đọc)
// @Router /notifications [get]
func (h *NotificationHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePage(c)
		result, err := h.service.List(c.Context(), actor, c.Query("unread") == "true", page, limit)
		return basehdl.HandleResponse(c, result, err)
	})
}

// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) HandleMarkRead(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		n, err := h.service.MarkRead(c.Context(), actor, id)
		return basehdl.HandleResponse(c, n, err)
	})
}

// @Router /notifications/preferences [get]
func (h *NotificationHandler) HandleGetPreferences(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		pref, err := h.service.Preferences(c.Context(), actor)
		return basehdl.HandleResponse(c, pref, err)
	})
}

// @Router /notifications/preferences [put]
func (h *NotificationHandler) HandleUpdatePreferences(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req notifdto.PreferenceUpdateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		pref, err := h.service.UpdatePreferences(c.Context(), actor, notifsvc.PreferenceInput{
			Email:          req.Email,
			EmailEnabled:   req.EmailEnabled,
			WebhookURL:     req.WebhookURL,
			WebhookEnabled: req.WebhookEnabled,
		})
		return basehdl.HandleResponse(c, pref, err)
	})
}
