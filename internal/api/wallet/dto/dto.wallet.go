// Package walletdto chứa DTO cho domain wallet.
package walletdto

// ReferenceInput là tham chiếu tùy chọn của giao dịch
type ReferenceInput struct {
	Kind string `json:"kind" validate:"required,oneof=Order Payment Delivery Commission"`
	ID   string `json:"id" validate:"required,max=64"`
}

// FundsInput là body nạp/trừ tiền của admin
type FundsInput struct {
	Amount      float64         `json:"amount" validate:"required,gt=0"`
	Type        string          `json:"type,omitempty" validate:"omitempty,oneof=credit refund delivery_fee debit order_payment commission"`
	Description string          `json:"description,omitempty" validate:"max=300,no_xss"`
	Reference   *ReferenceInput `json:"reference,omitempty" validate:"omitempty"`
}

// FreezeInput là body khóa ví
type FreezeInput struct {
	Reason string `json:"reason" validate:"required,max=300,no_xss"`
}
