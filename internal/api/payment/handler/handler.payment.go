// Package paymenthdl chứa HTTP handler cho thanh toán.
package paymenthdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	paymentdto "soug_elwahah/internal/api/payment/dto"
	paymentmodels "soug_elwahah/internal/api/payment/models"
	paymentsvc "soug_elwahah/internal/api/payment/service"
	"soug_elwahah/internal/utility"

	"github.com/gofiber/fiber/v3"
)

type PaymentHandler struct {
	service *paymentsvc.PaymentService
}

func NewPaymentHandler(service *paymentsvc.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// HandleProcess tạo lần thanh toán cho đơn
// @Router /payments [post]
func (h *PaymentHandler) HandleProcess(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req paymentdto.ProcessInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		p, err := h.service.ProcessPayment(c.Context(), actor, utility.String2ObjectID(req.OrderID), paymentmodels.Method(req.Method))
		return basehdl.HandleCreated(c, p, err)
	})
}

// @Router /payments/{id} [get]
func (h *PaymentHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		p, err := h.service.Get(c.Context(), actor, c.Params("id"))
		return basehdl.HandleResponse(c, p, err)
	})
}

// @Router /payments/by-order/{orderId} [get]
func (h *PaymentHandler) HandleListByOrder(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		orderID, err := basehdl.ParseObjectID(c, "orderId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		list, err := h.service.ListByOrder(c.Context(), actor, orderID)
		return basehdl.HandleResponse(c, list, err)
	})
}

// @Router /payments/{id}/confirm [post]
func (h *PaymentHandler) HandleConfirm(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req paymentdto.ConfirmInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		p, err := h.service.ConfirmGateway(c.Context(), actor, c.Params("id"), req.Success, req.Payload)
		return basehdl.HandleResponse(c, p, err)
	})
}

// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) HandleRefund(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req paymentdto.RefundInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		p, err := h.service.ProcessRefund(c.Context(), actor, c.Params("id"), req.Amount, req.Reason)
		return basehdl.HandleResponse(c, p, err)
	})
}
