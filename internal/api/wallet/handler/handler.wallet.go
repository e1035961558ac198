// Package wallethdl chứa HTTP handler cho ví.
package wallethdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	walletdto "soug_elwahah/internal/api/wallet/dto"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	walletsvc "soug_elwahah/internal/api/wallet/service"

	"github.com/gofiber/fiber/v3"
)

type WalletHandler struct {
	service *walletsvc.WalletService
}

func NewWalletHandler(service *walletsvc.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func entryFrom(req walletdto.FundsInput) walletmodels.Entry {
	e := walletmodels.Entry{
		Type:        walletmodels.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Reference != nil {
		e.Reference = &walletmodels.Reference{Kind: walletmodels.ReferenceKind(req.Reference.Kind), ID: req.Reference.ID}
	}
	return e
}

// @Router /wallet/me [get]
func (h *WalletHandler) HandleGetMine(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		w, err := h.service.GetOrCreate(c.Context(), actor.UserID)
		return basehdl.HandleResponse(c, w, err)
	})
}

// @Router /wallet/me/transactions [get]
func (h *WalletHandler) HandleMyTransactions(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePage(c)
		result, err := h.service.Transactions(c.Context(), actor.UserID, page, limit)
		return basehdl.HandleResponse(c, result, err)
	})
}

// @Router /wallet/me/stats [get]
func (h *WalletHandler) HandleMyStats(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		stats, err := h.service.Stats(c.Context(), actor.UserID)
		return basehdl.HandleResponse(c, stats, err)
	})
}

// HandleAddFunds: admin nạp tiền cho user
// @Router /wallet/{userId}/add-funds [post]
func (h *WalletHandler) HandleAddFunds(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectID(c, "userId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req walletdto.FundsInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		w, tx, err := h.service.AddFunds(c.Context(), actor, userID, entryFrom(req))
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, fiber.Map{"wallet": w, "transaction": tx}, nil)
	})
}

// HandleDeductFunds: admin trừ tiền của user
// @Router /wallet/{userId}/deduct-funds [post]
func (h *WalletHandler) HandleDeductFunds(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectID(c, "userId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req walletdto.FundsInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		w, tx, err := h.service.DeductFunds(c.Context(), actor, userID, entryFrom(req))
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		return basehdl.HandleResponse(c, fiber.Map{"wallet": w, "transaction": tx}, nil)
	})
}

// @Router /wallet/{userId}/freeze [post]
func (h *WalletHandler) HandleFreeze(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectID(c, "userId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req walletdto.FreezeInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		w, err := h.service.Freeze(c.Context(), actor, userID, req.Reason)
		return basehdl.HandleResponse(c, w, err)
	})
}

// @Router /wallet/{userId}/unfreeze [post]
func (h *WalletHandler) HandleUnfreeze(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		userID, err := basehdl.ParseObjectID(c, "userId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		w, err := h.service.Unfreeze(c.Context(), actor, userID)
		return basehdl.HandleResponse(c, w, err)
	})
}
