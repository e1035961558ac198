// Package notifdto chứa DTO cho domain notification.
package notifdto

// PreferenceUpdateInput là body cập nhật kênh nhận thông báo
type PreferenceUpdateInput struct {
	Email          string `json:"email" validate:"omitempty,email"`
	EmailEnabled   bool   `json:"emailEnabled"`
	WebhookURL     string `json:"webhookUrl" validate:"omitempty,url"`
	WebhookEnabled bool   `json:"webhookEnabled"`
}
