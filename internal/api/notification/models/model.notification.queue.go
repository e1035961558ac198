package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kênh gửi
const (
	ChannelInApp   = "in_app"
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// Trạng thái item trong outbox; gửi thành công thì item bị xóa khỏi queue
const (
	QueuePending    = "pending"
	QueueProcessing = "processing"
	QueueFailed     = "failed"
)

// QueueItem là một lần gửi (một người nhận, một kênh) đang chờ trong outbox
type QueueItem struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DedupeKey   string             `json:"dedupeKey" bson:"dedupeKey" index:"unique"`
	Channel     string             `json:"channel" bson:"channel"`
	RecipientID primitive.ObjectID `json:"recipientId" bson:"recipientId"`
	Address     string             `json:"address" bson:"address"` // email, webhook URL hoặc userId hex
	Type        string             `json:"type" bson:"type"`
	Title       string             `json:"title" bson:"title"`
	Message     string             `json:"message" bson:"message"`
	Related     *Related           `json:"related,omitempty" bson:"related,omitempty"`
	Status      string             `json:"status" bson:"status" index:"compound:status_next_retry"`
	RetryCount  int                `json:"retryCount" bson:"retryCount"`
	MaxRetries  int                `json:"maxRetries" bson:"maxRetries"`
	NextRetryAt *int64             `json:"nextRetryAt,omitempty" bson:"nextRetryAt" index:"compound:status_next_retry"`
	Error       string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   int64              `json:"updatedAt" bson:"updatedAt"`
}
