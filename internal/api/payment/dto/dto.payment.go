// Package paymentdto chứa DTO cho domain payment.
package paymentdto

// ProcessInput là body tạo lần thanh toán
type ProcessInput struct {
	OrderID string `json:"orderId" validate:"required,object_id"`
	Method  string `json:"method" validate:"required,payment_method"`
}

// ConfirmInput là callback giả lập của cổng thanh toán
type ConfirmInput struct {
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RefundInput là body hoàn tiền; amount 0 là hoàn toàn bộ
type RefundInput struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	Reason string  `json:"reason" validate:"required,max=500,no_xss"`
}
