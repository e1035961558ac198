package notification

import (
	"context"
	"fmt"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreferenceReader đọc cấu hình kênh nhận của user
type PreferenceReader interface {
	GetPreference(ctx context.Context, userID primitive.ObjectID) (*notifmodels.Preference, error)
}

// QueueWriter ghi item vào outbox (trùng dedupeKey thì bỏ qua)
type QueueWriter interface {
	Enqueue(ctx context.Context, item *notifmodels.QueueItem) error
}

// Dispatcher là Notifier đưa thông báo vào outbox theo từng kênh của người nhận
type Dispatcher struct {
	prefs      PreferenceReader
	queue      QueueWriter
	maxRetries int
	now        func() time.Time
}

// NewDispatcher tạo Dispatcher; maxRetries <= 0 → 3
func NewDispatcher(prefs PreferenceReader, queue QueueWriter, maxRetries int) *Dispatcher {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Dispatcher{prefs: prefs, queue: queue, maxRetries: maxRetries, now: time.Now}
}

// Notify enqueue từng thông báo; lỗi chỉ log
func (d *Dispatcher) Notify(ctx context.Context, msgs ...Message) {
	log := logger.WithContext(ctx).WithField("module", "notification")
	for _, m := range msgs {
		items, err := d.itemsFor(ctx, m)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"recipientId": m.RecipientID.Hex(),
				"type":        m.Type,
			}).Warn("📦 [NOTIFY] Không đọc được cấu hình kênh, chỉ gửi in-app")
		}
		for _, item := range items {
			if err := d.queue.Enqueue(ctx, item); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"recipientId": m.RecipientID.Hex(),
					"type":        m.Type,
					"channel":     item.Channel,
				}).Error("📦 [NOTIFY] Lỗi khi enqueue thông báo")
			}
		}
	}
}

// itemsFor dựng item outbox cho các kênh của người nhận; in-app luôn có
func (d *Dispatcher) itemsFor(ctx context.Context, m Message) ([]*notifmodels.QueueItem, error) {
	key := m.DedupeKey
	if key == "" {
		key = utility.NewUUID()
	}
	ts := d.now().UnixMilli()
	build := func(channel, address string) *notifmodels.QueueItem {
		return &notifmodels.QueueItem{
			ID:          primitive.NewObjectID(),
			DedupeKey:   fmt.Sprintf("%s:%s:%s", key, channel, m.RecipientID.Hex()),
			Channel:     channel,
			RecipientID: m.RecipientID,
			Address:     address,
			Type:        m.Type,
			Title:       m.Title,
			Message:     m.Message,
			Related:     m.Related,
			Status:      notifmodels.QueuePending,
			MaxRetries:  d.maxRetries,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
	}

	items := []*notifmodels.QueueItem{build(notifmodels.ChannelInApp, m.RecipientID.Hex())}
	pref, err := d.prefs.GetPreference(ctx, m.RecipientID)
	if err != nil {
		return items, err
	}
	if pref.EmailEnabled && pref.Email != "" {
		items = append(items, build(notifmodels.ChannelEmail, pref.Email))
	}
	if pref.WebhookEnabled && pref.WebhookURL != "" {
		items = append(items, build(notifmodels.ChannelWebhook, pref.WebhookURL))
	}
	return items, nil
}
