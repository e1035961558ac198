package notifsvc

import (
	"context"
	"errors"
	"fmt"

	basemodels "soug_elwahah/internal/api/base/models"
	basesvc "soug_elwahah/internal/api/base/service"
	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InboxMongoService là data access cho hộp thư notifications
type InboxMongoService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.Notification]
}

// NewInboxMongoService lấy collection từ registry
func NewInboxMongoService() (*InboxMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Notifications)
	if !exist {
		return nil, fmt.Errorf("failed to get notifications collection: %v", common.ErrNotFound)
	}
	return &InboxMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.Notification](collection),
	}, nil
}

func (s *InboxMongoService) Insert(ctx context.Context, n *notifmodels.Notification) error {
	_, err := s.InsertOne(ctx, *n)
	return err
}

func (s *InboxMongoService) ListForUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, page, limit int64) (*basemodels.PaginateResult[notifmodels.Notification], error) {
	filter := bson.M{"recipientId": userID}
	if unreadOnly {
		filter["isRead"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}

// MarkRead đánh dấu đã đọc; chỉ người nhận mới khớp điều kiện
func (s *InboxMongoService) MarkRead(ctx context.Context, id, userID primitive.ObjectID, readAt int64) (*notifmodels.Notification, error) {
	return s.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipientId": userID},
		bson.M{"$set": bson.M{"isRead": true, "readAt": readAt}},
		nil)
}

// PreferenceMongoService là data access cho notification_preferences
type PreferenceMongoService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.Preference]
}

// NewPreferenceMongoService lấy collection từ registry
func NewPreferenceMongoService() (*PreferenceMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.NotificationPreferences)
	if !exist {
		return nil, fmt.Errorf("failed to get notification_preferences collection: %v", common.ErrNotFound)
	}
	return &PreferenceMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.Preference](collection),
	}, nil
}

// GetPreference trả về cấu hình của user; chưa có thì trả cấu hình mặc định (chỉ in-app)
func (s *PreferenceMongoService) GetPreference(ctx context.Context, userID primitive.ObjectID) (*notifmodels.Preference, error) {
	pref, err := s.FindOne(ctx, bson.M{"userId": userID}, nil)
	if errors.Is(err, common.ErrNotFound) {
		return &notifmodels.Preference{UserID: userID}, nil
	}
	return pref, err
}

// SavePreference upsert cấu hình theo userId
func (s *PreferenceMongoService) SavePreference(ctx context.Context, p *notifmodels.Preference) (*notifmodels.Preference, error) {
	update := bson.M{
		"$set": bson.M{
			"email":          p.Email,
			"emailEnabled":   p.EmailEnabled,
			"webhookUrl":     p.WebhookURL,
			"webhookEnabled": p.WebhookEnabled,
			"updatedAt":      p.UpdatedAt,
		},
		"$setOnInsert": bson.M{"userId": p.UserID},
	}
	return s.FindOneAndUpdate(ctx, bson.M{"userId": p.UserID}, update, options.FindOneAndUpdate().SetUpsert(true))
}
