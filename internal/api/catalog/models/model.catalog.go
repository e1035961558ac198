// Package models - cửa hàng và sản phẩm (kèm tồn kho) thuộc domain catalog.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store là cửa hàng trên sàn, thuộc về một user có vai trò store
type Store struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID `json:"ownerId" bson:"ownerId" index:"single:1"`
	Name        string             `json:"name" bson:"name"`
	Slug        string             `json:"slug" bson:"slug" index:"unique"`
	DeliveryFee *float64           `json:"deliveryFee,omitempty" bson:"deliveryFee,omitempty"` // nil → phí mặc định của sàn; 0 = miễn phí giao
	Currency    string             `json:"currency" bson:"currency"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   int64              `json:"updatedAt" bson:"updatedAt"`
}

// Product là sản phẩm của cửa hàng; Stock không bao giờ âm
type Product struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StoreID   primitive.ObjectID `json:"storeId" bson:"storeId" index:"single:1"`
	SKU       string             `json:"sku" bson:"sku" index:"unique"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Stock     int                `json:"stock" bson:"stock"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64              `json:"updatedAt" bson:"updatedAt"`
}
