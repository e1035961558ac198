package orderhdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	orderdto "soug_elwahah/internal/api/order/dto"
	ordermodels "soug_elwahah/internal/api/order/models"

	"github.com/gofiber/fiber/v3"
)

func bidInput(req orderdto.BidInput) ordermodels.BidInput {
	return ordermodels.BidInput{Price: req.Price, EstimatedTime: req.EstimatedTime, Note: req.Note}
}

// HandlePlaceBid: tài xế đặt giá
// @Router /orders/{id}/bids [post]
func (h *OrderHandler) HandlePlaceBid(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.BidInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.PlaceBid(c.Context(), actor, id, bidInput(req))
		return basehdl.HandleCreated(c, order, err)
	})
}

// @Router /orders/{id}/bids [put]
func (h *OrderHandler) HandleUpdateBid(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.BidInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.UpdateBid(c.Context(), actor, id, bidInput(req))
		return basehdl.HandleResponse(c, order, err)
	})
}

// @Router /orders/{id}/bids [delete]
func (h *OrderHandler) HandleWithdrawBid(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.WithdrawBid(c.Context(), actor, id)
		return basehdl.HandleResponse(c, order, err)
	})
}

// HandleAcceptOwnBid: tài xế tự chấp nhận giá của mình (chính sách driver_self)
// @Router /orders/{id}/bids/accept [post]
func (h *OrderHandler) HandleAcceptOwnBid(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.AcceptBid(c.Context(), actor, id, actor.UserID)
		return basehdl.HandleResponse(c, order, err)
	})
}

// HandleSelectBid: khách, chủ cửa hàng hoặc admin chọn giá của một tài xế (chính sách customer_select)
// @Router /orders/{id}/bids/{driverId}/select [post]
func (h *OrderHandler) HandleSelectBid(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		driverID, err := basehdl.ParseObjectID(c, "driverId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.AcceptBid(c.Context(), actor, id, driverID)
		return basehdl.HandleResponse(c, order, err)
	})
}
