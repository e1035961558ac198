// Package models - các lần thanh toán của đơn hàng và hoàn tiền thuộc domain payment.
package models

import (
	"time"

	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Method là phương thức thanh toán
type Method string

const (
	MethodWallet       Method = "wallet"
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodMobileWallet Method = "mobile_wallet"
	MethodBankTransfer Method = "bank_transfer"
)

// AllMethods dùng cho validator payment_method
func AllMethods() []string {
	return []string{string(MethodWallet), string(MethodCash), string(MethodCard), string(MethodMobileWallet), string(MethodBankTransfer)}
}

// Status dùng chung bộ giá trị với tóm tắt thanh toán trên đơn
type Status = ordermodels.PaymentStatus

// Refund là thông tin hoàn tiền, chỉ ghi một lần
type Refund struct {
	IsRefunded   bool               `json:"isRefunded" bson:"isRefunded"`
	RefundAmount float64            `json:"refundAmount" bson:"refundAmount"`
	Reason       string             `json:"reason" bson:"reason"`
	RefundedAt   int64              `json:"refundedAt" bson:"refundedAt"`
	RefundedBy   primitive.ObjectID `json:"refundedBy" bson:"refundedBy"`
}

// Payment là một lần thanh toán của đơn
type Payment struct {
	ID              primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	PaymentID       string                 `json:"paymentId" bson:"paymentId" index:"unique"`
	OrderID         primitive.ObjectID     `json:"orderId" bson:"orderId" index:"single:1"`
	CustomerID      primitive.ObjectID     `json:"customerId" bson:"customerId" index:"single:1"`
	StoreOwnerID    primitive.ObjectID     `json:"storeOwnerId" bson:"storeOwnerId"`
	Amount          float64                `json:"amount" bson:"amount"`
	Currency        string                 `json:"currency" bson:"currency"`
	Method          Method                 `json:"method" bson:"method"`
	Status          Status                 `json:"status" bson:"status"`
	Attempt         int                    `json:"attempt" bson:"attempt"`
	TransactionID   string                 `json:"transactionId,omitempty" bson:"transactionId,omitempty" index:"unique,sparse"`
	GatewayResponse map[string]interface{} `json:"gatewayResponse,omitempty" bson:"gatewayResponse,omitempty"`
	FailureReason   string                 `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	PaidAt          *int64                 `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	Refund          *Refund                `json:"refund,omitempty" bson:"refund,omitempty"`

	Version   int64 `json:"version" bson:"version"`
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// NewPayment dựng lần thanh toán pending cho toàn bộ giá trị đơn
func NewPayment(paymentID string, o *ordermodels.Order, method Method, attempt int, now time.Time) *Payment {
	ts := now.UnixMilli()
	return &Payment{
		ID:           primitive.NewObjectID(),
		PaymentID:    paymentID,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		StoreOwnerID: o.StoreOwnerID,
		Amount:       o.TotalAmount,
		Currency:     o.Currency,
		Method:       method,
		Status:       ordermodels.PaymentPending,
		Attempt:      attempt,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// MarkPaid chuyển pending/processing → paid
func (p *Payment) MarkPaid(transactionID string, now time.Time) error {
	if p.Status != ordermodels.PaymentPending && p.Status != ordermodels.PaymentProcessing {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(p.Status)})
	}
	ts := now.UnixMilli()
	p.Status = ordermodels.PaymentPaid
	if p.TransactionID == "" {
		p.TransactionID = transactionID
	}
	p.PaidAt = &ts
	p.FailureReason = ""
	p.UpdatedAt = ts
	return nil
}

// MarkProcessing ghi phản hồi cổng thanh toán và chờ xác nhận
func (p *Payment) MarkProcessing(transactionID string, gateway map[string]interface{}, now time.Time) error {
	if p.Status != ordermodels.PaymentPending {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(p.Status)})
	}
	p.Status = ordermodels.PaymentProcessing
	p.TransactionID = transactionID
	p.GatewayResponse = gateway
	p.UpdatedAt = now.UnixMilli()
	return nil
}

// MarkFailed kết thúc lần thanh toán với lý do
func (p *Payment) MarkFailed(reason string, now time.Time) error {
	if p.Status != ordermodels.PaymentPending && p.Status != ordermodels.PaymentProcessing {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(p.Status)})
	}
	p.Status = ordermodels.PaymentFailed
	p.FailureReason = reason
	p.UpdatedAt = now.UnixMilli()
	return nil
}

// ApplyRefund ghi hoàn tiền một lần; amount 0 → hoàn toàn bộ. Trả về số tiền hoàn.
func (p *Payment) ApplyRefund(by primitive.ObjectID, amount float64, reason string, now time.Time) (float64, error) {
	if p.Refund != nil && p.Refund.IsRefunded {
		return 0, common.ErrAlreadyRefunded
	}
	if amount < 0 || utility.CmpMoney(amount, p.Amount) > 0 {
		return 0, common.WithDetails(common.ErrAmountMismatch, map[string]float64{"amount": amount, "paid": p.Amount})
	}
	if p.Status != ordermodels.PaymentPaid {
		return 0, common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(p.Status)})
	}
	if amount == 0 {
		amount = p.Amount
	}
	ts := now.UnixMilli()
	p.Status = ordermodels.PaymentRefunded
	p.Refund = &Refund{
		IsRefunded:   true,
		RefundAmount: utility.Float(utility.Dec(amount)),
		Reason:       reason,
		RefundedAt:   ts,
		RefundedBy:   by,
	}
	p.UpdatedAt = ts
	return p.Refund.RefundAmount, nil
}

// Summary là bản tóm tắt ghi lên đơn
func (p *Payment) Summary() ordermodels.PaymentSummary {
	return ordermodels.PaymentSummary{
		Method:        string(p.Method),
		Status:        p.Status,
		Amount:        p.Amount,
		PaymentID:     p.PaymentID,
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
	}
}

// Clone sao chép sâu lần thanh toán
func (p *Payment) Clone() *Payment {
	cp := *p
	if p.PaidAt != nil {
		ts := *p.PaidAt
		cp.PaidAt = &ts
	}
	if p.Refund != nil {
		r := *p.Refund
		cp.Refund = &r
	}
	if p.GatewayResponse != nil {
		cp.GatewayResponse = make(map[string]interface{}, len(p.GatewayResponse))
		for k, v := range p.GatewayResponse {
			cp.GatewayResponse[k] = v
		}
	}
	return &cp
}
