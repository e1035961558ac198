// Package channels chứa các kênh gửi thông báo: in-app, email (SMTP) và webhook.
package channels

import (
	"context"

	notifmodels "soug_elwahah/internal/api/notification/models"
)

// Sender gửi một item outbox qua kênh của nó
type Sender interface {
	Send(ctx context.Context, item *notifmodels.QueueItem) error
}
