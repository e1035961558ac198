package channels

import (
	"context"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InboxWriter ghi thông báo vào hộp thư
type InboxWriter interface {
	Insert(ctx context.Context, n *notifmodels.Notification) error
}

// InAppSender ghi thông báo vào hộp thư của người nhận
type InAppSender struct {
	inbox InboxWriter
	now   func() time.Time
}

func NewInAppSender(inbox InboxWriter) *InAppSender {
	return &InAppSender{inbox: inbox, now: time.Now}
}

func (s *InAppSender) Send(ctx context.Context, item *notifmodels.QueueItem) error {
	return s.inbox.Insert(ctx, &notifmodels.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: item.RecipientID,
		Type:        item.Type,
		Title:       item.Title,
		Message:     item.Message,
		Related:     item.Related,
		CreatedAt:   s.now().UnixMilli(),
	})
}
