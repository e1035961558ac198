// Package orderhdl chứa HTTP handler cho đơn hàng và đấu giá giao hàng.
package orderhdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	orderdto "soug_elwahah/internal/api/order/dto"
	ordermodels "soug_elwahah/internal/api/order/models"
	ordersvc "soug_elwahah/internal/api/order/service"
	"soug_elwahah/internal/utility"

	"github.com/gofiber/fiber/v3"
)

// OrderHandler xử lý các route /orders
type OrderHandler struct {
	service *ordersvc.OrderService
}

func NewOrderHandler(service *ordersvc.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// HandleCreate tạo đơn hàng (customer)
// @Router /orders [post]
func (h *OrderHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.OrderCreateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		items := make([]ordersvc.ItemInput, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, ordersvc.ItemInput{ProductID: utility.String2ObjectID(it.ProductID), Quantity: it.Quantity})
		}
		order, err := h.service.Create(c.Context(), actor, ordersvc.CreateOrderInput{
			Items: items,
			Address: ordermodels.Address{
				Street: req.DeliveryAddress.Street,
				City:   req.DeliveryAddress.City,
				Lat:    req.DeliveryAddress.Lat,
				Lng:    req.DeliveryAddress.Lng,
				Note:   req.DeliveryAddress.Note,
			},
			Notes: req.Notes,
		})
		return basehdl.HandleCreated(c, order, err)
	})
}

// HandleList liệt kê đơn theo role đang dùng
// @Router /orders [get]
func (h *OrderHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePage(c)
		result, err := h.service.List(c.Context(), actor, ordermodels.OrderStatus(c.Query("status")), page, limit)
		return basehdl.HandleResponse(c, result, err)
	})
}

// @Router /orders/{id} [get]
func (h *OrderHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.Get(c.Context(), actor, id)
		return basehdl.HandleResponse(c, order, err)
	})
}

// HandleUpdateStatus chuyển trạng thái đơn
// @Router /orders/{id}/status [put]
func (h *OrderHandler) HandleUpdateStatus(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.StatusUpdateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.Transition(c.Context(), actor, id, ordermodels.OrderStatus(req.Status), req.Note)
		return basehdl.HandleResponse(c, order, err)
	})
}

// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) HandleCancel(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.CancelInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.Cancel(c.Context(), actor, id, req.Reason)
		return basehdl.HandleResponse(c, order, err)
	})
}

// @Router /orders/{id}/rating [post]
func (h *OrderHandler) HandleRate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req orderdto.RatingInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		order, err := h.service.Rate(c.Context(), actor, id, req.Rating, req.Comment)
		return basehdl.HandleResponse(c, order, err)
	})
}
