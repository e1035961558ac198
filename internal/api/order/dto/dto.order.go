// Package orderdto chứa DTO cho domain order.
package orderdto

// OrderItemInput là một dòng hàng khách đặt
type OrderItemInput struct {
	ProductID string `json:"productId" validate:"required,object_id"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=1000"`
}

// AddressInput là địa chỉ giao hàng
type AddressInput struct {
	Street string  `json:"street" validate:"required,max=200,no_xss"`
	City   string  `json:"city" validate:"required,max=100,no_xss"`
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
	Note   string  `json:"note,omitempty" validate:"max=300,no_xss"`
}

// OrderCreateInput là body tạo đơn
type OrderCreateInput struct {
	Items           []OrderItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	DeliveryAddress AddressInput     `json:"deliveryAddress" validate:"required"`
	Notes           string           `json:"notes,omitempty" validate:"max=500,no_xss"`
}

// StatusUpdateInput là body chuyển trạng thái đơn
type StatusUpdateInput struct {
	Status string `json:"status" validate:"required,order_status"`
	Note   string `json:"note,omitempty" validate:"max=500,no_xss"`
}

// CancelInput là body hủy đơn
type CancelInput struct {
	Reason string `json:"reason" validate:"required,max=500,no_xss"`
}

// RatingInput là body đánh giá đơn
type RatingInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=1000,no_xss"`
}

// BidInput là body đặt hoặc sửa giá giao hàng
type BidInput struct {
	Price         float64 `json:"price" validate:"required,gt=0"`
	EstimatedTime string  `json:"estimatedTime" validate:"required,bid_eta"`
	Note          string  `json:"note,omitempty" validate:"max=300,no_xss"`
}
