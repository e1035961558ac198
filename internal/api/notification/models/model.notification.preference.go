package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Preference là các kênh ngoài app mà user muốn nhận thông báo.
// Kênh in-app luôn bật.
type Preference struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId" index:"unique"`
	Email          string             `json:"email,omitempty" bson:"email,omitempty"`
	EmailEnabled   bool               `json:"emailEnabled" bson:"emailEnabled"`
	WebhookURL     string             `json:"webhookUrl,omitempty" bson:"webhookUrl,omitempty"`
	WebhookEnabled bool               `json:"webhookEnabled" bson:"webhookEnabled"`
	UpdatedAt      int64              `json:"updatedAt" bson:"updatedAt"`
}
