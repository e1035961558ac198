// Package notifsvc chứa data access MongoDB (inbox, preference, outbox, history) và nghiệp vụ đọc thông báo.
package notifsvc

import (
	"context"
	"fmt"

	basesvc "soug_elwahah/internal/api/base/service"
	notifmodels "soug_elwahah/internal/api/notification/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QueueMongoService là data access cho outbox notification_queue
type QueueMongoService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.QueueItem]
}

// NewQueueMongoService lấy collection từ registry
func NewQueueMongoService() (*QueueMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.NotificationQueue)
	if !exist {
		return nil, fmt.Errorf("failed to get notification_queue collection: %v", common.ErrNotFound)
	}
	return &QueueMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.QueueItem](collection),
	}, nil
}

// Enqueue thêm item; trùng dedupeKey thì bỏ qua
func (s *QueueMongoService) Enqueue(ctx context.Context, item *notifmodels.QueueItem) error {
	if _, err := s.InsertOne(ctx, *item); err != nil {
		if common.IsDuplicate(err) {
			return nil
		}
		return err
	}
	return nil
}

// FindPending lấy các item pending đã tới hạn retry, cũ nhất trước
func (s *QueueMongoService) FindPending(ctx context.Context, now int64, limit int) ([]notifmodels.QueueItem, error) {
	filter := bson.M{
		"status": notifmodels.QueuePending,
		"$or": []bson.M{
			{"nextRetryAt": nil},
			{"nextRetryAt": bson.M{"$lte": now}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	return s.Find(ctx, filter, opts)
}

// Claim chuyển item pending sang processing; false nếu worker khác đã nhận
func (s *QueueMongoService) Claim(ctx context.Context, id primitive.ObjectID, now int64) (bool, error) {
	matched, _, err := s.UpdateOne(ctx,
		bson.M{"_id": id, "status": notifmodels.QueuePending},
		bson.M{"$set": bson.M{"status": notifmodels.QueueProcessing, "updatedAt": now}},
		nil)
	return matched == 1, err
}

// Complete xóa item đã gửi xong
func (s *QueueMongoService) Complete(ctx context.Context, id primitive.ObjectID) error {
	return s.DeleteOne(ctx, bson.M{"_id": id})
}

// ScheduleRetry đưa item về pending với lần thử kế tiếp
func (s *QueueMongoService) ScheduleRetry(ctx context.Context, id primitive.ObjectID, retryCount int, nextRetryAt int64, errMsg string, now int64) error {
	_, _, err := s.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":      notifmodels.QueuePending,
		"retryCount":  retryCount,
		"nextRetryAt": nextRetryAt,
		"error":       errMsg,
		"updatedAt":   now,
	}}, nil)
	return err
}

// MarkFailed đánh dấu item hết lượt retry
func (s *QueueMongoService) MarkFailed(ctx context.Context, id primitive.ObjectID, retryCount int, errMsg string, now int64) error {
	_, _, err := s.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     notifmodels.QueueFailed,
		"retryCount": retryCount,
		"error":      errMsg,
		"updatedAt":  now,
	}}, nil)
	return err
}

// ResetStuck trả các item processing quá lâu (worker chết giữa chừng) về pending
func (s *QueueMongoService) ResetStuck(ctx context.Context, staleBefore int64, now int64) (int64, error) {
	result, err := s.Collection().UpdateMany(ctx,
		bson.M{"status": notifmodels.QueueProcessing, "updatedAt": bson.M{"$lt": staleBefore}},
		bson.M{"$set": bson.M{"status": notifmodels.QueuePending, "nextRetryAt": nil, "updatedAt": now}})
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return result.ModifiedCount, nil
}

// CleanupFailed xóa các item failed cũ hơn mốc
func (s *QueueMongoService) CleanupFailed(ctx context.Context, before int64) (int64, error) {
	return s.DeleteMany(ctx, bson.M{"status": notifmodels.QueueFailed, "updatedAt": bson.M{"$lt": before}})
}

// HistoryMongoService là data access cho notification_history
type HistoryMongoService struct {
	*basesvc.BaseServiceMongoImpl[notifmodels.History]
}

// NewHistoryMongoService lấy collection từ registry
func NewHistoryMongoService() (*HistoryMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.NotificationHistory)
	if !exist {
		return nil, fmt.Errorf("failed to get notification_history collection: %v", common.ErrNotFound)
	}
	return &HistoryMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[notifmodels.History](collection),
	}, nil
}

func (s *HistoryMongoService) Record(ctx context.Context, h *notifmodels.History) error {
	_, err := s.InsertOne(ctx, *h)
	return err
}
