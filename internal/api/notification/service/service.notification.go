package notifsvc

import (
	"context"
	"errors"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InboxRepository là kho hộp thư
type InboxRepository interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int64) (*basemodels.PaginateResult[notifmodels.Notification], error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, readAt int64) (*notifmodels.Notification, error)
}

// PreferenceRepository là kho cấu hình kênh nhận
type PreferenceRepository interface {
	GetPreference(ctx context.Context, userID primitive.ObjectID) (*notifmodels.Preference, error)
	SavePreference(ctx context.Context, p *notifmodels.Preference) (*notifmodels.Preference, error)
}

// PreferenceInput là cấu hình user gửi lên
type PreferenceInput struct {
	Email          string
	EmailEnabled   bool
	WebhookURL     string
	WebhookEnabled bool
}

// NotificationService là nghiệp vụ hộp thư của người dùng
type NotificationService struct {
	inbox InboxRepository
	prefs PreferenceRepository
	now   func() time.Time
}

func NewNotificationService(inbox InboxRepository, prefs PreferenceRepository) *NotificationService {
	return &NotificationService{inbox: inbox, prefs: prefs, now: time.Now}
}

// List trả về thông báo của chính actor, mới nhất trước
func (s *NotificationService) List(ctx context.Context, actor authmodels.Actor, unreadOnly bool, page, limit int64) (*basemodels.PaginateResult[notifmodels.Notification], error) {
	page, limit = basemodels.NormalizePage(page, limit)
	return s.inbox.ListForUser(ctx, actor.UserID, unreadOnly, page, limit)
}

// MarkRead đánh dấu đã đọc; thông báo của người khác coi như không tồn tại
func (s *NotificationService) MarkRead(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID) (*notifmodels.Notification, error) {
	return s.inbox.MarkRead(ctx, id, actor.UserID, s.now().UnixMilli())
}

// Preferences trả về cấu hình kênh nhận của actor
func (s *NotificationService) Preferences(ctx context.Context, actor authmodels.Actor) (*notifmodels.Preference, error) {
	return s.prefs.GetPreference(ctx, actor.UserID)
}

// UpdatePreferences lưu cấu hình; bật kênh mà thiếu địa chỉ là lỗi đầu vào
func (s *NotificationService) UpdatePreferences(ctx context.Context, actor authmodels.Actor, in PreferenceInput) (*notifmodels.Preference, error) {
	var errs []error
	if in.EmailEnabled && in.Email == "" {
		errs = append(errs, errors.New("email required"))
	}
	if in.WebhookEnabled && in.WebhookURL == "" {
		errs = append(errs, errors.New("webhookUrl required"))
	}
	if len(errs) > 0 {
		return nil, common.WithDetails(common.ErrInvalidInput, errors.Join(errs...).Error())
	}
	return s.prefs.SavePreference(ctx, &notifmodels.Preference{
		UserID:         actor.UserID,
		Email:          in.Email,
		EmailEnabled:   in.EmailEnabled,
		WebhookURL:     in.WebhookURL,
		WebhookEnabled: in.WebhookEnabled,
		UpdatedAt:      s.now().UnixMilli(),
	})
}
