// Package models - đơn hàng, máy trạng thái đơn và đấu giá giao hàng thuộc domain order.
package models

import (
	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"
)

// OrderStatus là trạng thái vòng đời của đơn hàng
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
	StatusDisputed       OrderStatus = "disputed"
	StatusResolved       OrderStatus = "resolved"
)

// AllStatuses dùng cho validator order_status
func AllStatuses() []string {
	return []string{
		string(StatusPending), string(StatusConfirmed), string(StatusPreparing), string(StatusReady),
		string(StatusOutForDelivery), string(StatusDelivered), string(StatusCompleted),
		string(StatusCancelled), string(StatusRefunded), string(StatusDisputed), string(StatusResolved),
	}
}

var baseTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReady, StatusCancelled},
	StatusReady:          {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusCompleted},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

var disputeTransitions = map[OrderStatus][]OrderStatus{
	StatusDelivered: {StatusDisputed},
	StatusDisputed:  {StatusResolved},
	StatusResolved:  {StatusCompleted, StatusRefunded},
}

// StatusMachine là bảng chuyển trạng thái duy nhất của đơn hàng
type StatusMachine struct {
	allowed map[OrderStatus]map[OrderStatus]struct{}
}

// NewStatusMachine dựng bảng chuyển; disputeEnabled thêm nhánh delivered → disputed → resolved
func NewStatusMachine(disputeEnabled bool) *StatusMachine {
	m := &StatusMachine{allowed: map[OrderStatus]map[OrderStatus]struct{}{}}
	m.add(baseTransitions)
	if disputeEnabled {
		m.add(disputeTransitions)
	}
	return m
}

func (m *StatusMachine) add(table map[OrderStatus][]OrderStatus) {
	for from, tos := range table {
		set, ok := m.allowed[from]
		if !ok {
			set = map[OrderStatus]struct{}{}
			m.allowed[from] = set
		}
		for _, to := range tos {
			set[to] = struct{}{}
		}
	}
}

// CanTransition kiểm tra from → to có trong bảng
func (m *StatusMachine) CanTransition(from, to OrderStatus) bool {
	_, ok := m.allowed[from][to]
	return ok
}

// IsTerminal: trạng thái không còn bước chuyển nào
func (m *StatusMachine) IsTerminal(s OrderStatus) bool {
	return len(m.allowed[s]) == 0
}

// Known kiểm tra trạng thái có trong bảng
func (m *StatusMachine) Known(s OrderStatus) bool {
	_, ok := m.allowed[s]
	return ok
}

// AuthorizeTransition kiểm tra actor có được đưa đơn sang trạng thái to hay không
func AuthorizeTransition(actor authmodels.Actor, o *Order, to OrderStatus) error {
	if actor.IsAdmin() {
		return nil
	}
	isCustomer := actor.Is(authmodels.RoleCustomer) && o.IsCustomer(actor.UserID)
	isStore := actor.Is(authmodels.RoleStore) && o.IsStoreOwner(actor.UserID)

	var ok bool
	switch to {
	case StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery:
		ok = isStore
	case StatusDelivered, StatusDisputed:
		ok = isCustomer
	case StatusCompleted, StatusCancelled:
		ok = isCustomer || isStore
	}
	if !ok {
		return common.WithDetails(common.ErrForbidden, map[string]string{"to": string(to), "role": string(actor.ActiveRole)})
	}
	return nil
}
