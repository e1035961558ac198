// Package deliverydto chứa DTO cho domain delivery.
package deliverydto

// StatusUpdateInput là body cập nhật trạng thái chuyến giao
type StatusUpdateInput struct {
	Status string `json:"status" validate:"required,delivery_status"`
	Note   string `json:"note,omitempty" validate:"max=500,no_xss"`
}
