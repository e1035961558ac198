// Package models - hộp thư thông báo, cấu hình kênh nhận, outbox và lịch sử gửi thuộc domain notification.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loại đối tượng liên quan của thông báo
const (
	RelatedOrder    = "Order"
	RelatedPayment  = "Payment"
	RelatedDelivery = "Delivery"
	RelatedWallet   = "Wallet"
)

// Related là đối tượng nghiệp vụ mà thông báo nói tới
type Related struct {
	Kind string `json:"kind" bson:"kind"`
	ID   string `json:"id" bson:"id"`
}

// Notification là một thông báo trong app của người nhận
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID primitive.ObjectID `json:"recipientId" bson:"recipientId" index:"single:1;compound:recipient_created"`
	Type        string             `json:"type" bson:"type"`
	Title       string             `json:"title" bson:"title"`
	Message     string             `json:"message" bson:"message"`
	Related     *Related           `json:"related,omitempty" bson:"related,omitempty"`
	IsRead      bool               `json:"isRead" bson:"isRead"`
	ReadAt      *int64             `json:"readAt,omitempty" bson:"readAt,omitempty"`
	CreatedAt   int64              `json:"createdAt" bson:"createdAt" index:"compound:recipient_created,order:-1"`
}
