package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// AuditAction mô tả một hành động nghiệp vụ làm thay đổi trạng thái
type AuditAction struct {
	Action       string                 `json:"action"`        // ví dụ: "order_transition", "wallet_debit"
	UserID       string                 `json:"user_id"`       // người thực hiện
	Role         string                 `json:"role"`          // vai trò đang active
	ResourceType string                 `json:"resource_type"` // order, wallet, payment, delivery
	ResourceID   string                 `json:"resource_id"`
	Details      map[string]interface{} `json:"details"`
}

// LogAction ghi một entry audit
func LogAction(ctx context.Context, a AuditAction) {
	fields := logrus.Fields{
		"action":        a.Action,
		"user_id":       a.UserID,
		"role":          a.Role,
		"resource_type": a.ResourceType,
		"resource_id":   a.ResourceID,
		"timestamp":     time.Now().UnixMilli(),
	}
	if ctx != nil {
		if rid := ctx.Value(RequestIDKey); rid != nil {
			fields["request_id"] = rid
		}
	}
	if len(a.Details) > 0 {
		fields["details"] = a.Details
	}
	GetAuditLogger().WithFields(fields).Info("Audit")
}
