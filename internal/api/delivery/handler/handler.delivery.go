// Package deliveryhdl chứa HTTP handler cho chuyến giao hàng.
package deliveryhdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	deliverydto "soug_elwahah/internal/api/delivery/dto"
	deliverymodels "soug_elwahah/internal/api/delivery/models"
	deliverysvc "soug_elwahah/internal/api/delivery/service"

	"github.com/gofiber/fiber/v3"
)

type DeliveryHandler struct {
	service *deliverysvc.DeliveryService
}

func NewDeliveryHandler(service *deliverysvc.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// @Router /deliveries/{id} [get]
func (h *DeliveryHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		d, err := h.service.Get(c.Context(), actor, id)
		return basehdl.HandleResponse(c, d, err)
	})
}

// @Router /deliveries/by-order/{orderId} [get]
func (h *DeliveryHandler) HandleGetByOrder(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		orderID, err := basehdl.ParseObjectID(c, "orderId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		d, err := h.service.GetByOrder(c.Context(), actor, orderID)
		return basehdl.HandleResponse(c, d, err)
	})
}

// HandleUpdateStatus: tài xế được giao hoặc admin cập nhật chuyến giao
// @Router /deliveries/{id}/status [put]
func (h *DeliveryHandler) HandleUpdateStatus(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req deliverydto.StatusUpdateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		d, err := h.service.UpdateStatus(c.Context(), actor, id, deliverymodels.DeliveryStatus(req.Status), req.Note)
		return basehdl.HandleResponse(c, d, err)
	})
}
