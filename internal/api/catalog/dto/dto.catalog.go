// Package catalogdto chứa DTO cho domain catalog.
package catalogdto

// StoreCreateInput là body tạo cửa hàng
type StoreCreateInput struct {
	OwnerID     string   `json:"ownerId,omitempty" validate:"omitempty,object_id"` // chỉ admin dùng
	Name        string   `json:"name" validate:"required,max=120,no_xss"`
	Slug        string   `json:"slug" validate:"required,max=80"`
	DeliveryFee *float64 `json:"deliveryFee,omitempty" validate:"omitempty,gte=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// ProductCreateInput là body tạo sản phẩm
type ProductCreateInput struct {
	StoreID string  `json:"storeId" validate:"required,object_id"`
	SKU     string  `json:"sku" validate:"required,max=64"`
	Name    string  `json:"name" validate:"required,max=200,no_xss"`
	Price   float64 `json:"price" validate:"gte=0"`
	Stock   int     `json:"stock" validate:"gte=0"`
}

// StockUpdateInput là body cập nhật tồn kho
type StockUpdateInput struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}
