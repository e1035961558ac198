package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// History ghi lại kết quả từng lần gửi
type History struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	QueueItemID primitive.ObjectID `json:"queueItemId" bson:"queueItemId" index:"single:1"`
	Channel     string             `json:"channel" bson:"channel"`
	RecipientID primitive.ObjectID `json:"recipientId" bson:"recipientId" index:"single:1"`
	Address     string             `json:"address" bson:"address"`
	Type        string             `json:"type" bson:"type"`
	Status      string             `json:"status" bson:"status"` // sent | failed
	Error       string             `json:"error,omitempty" bson:"error,omitempty"`
	RetryCount  int                `json:"retryCount" bson:"retryCount"`
	SentAt      *int64             `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	CreatedAt   int64              `json:"createdAt" bson:"createdAt" index:"single:-1"`
}
