// Package ordersvc chứa data access và nghiệp vụ đơn hàng: tạo đơn, chuyển trạng thái, đấu giá giao hàng.
package ordersvc

import (
	"context"
	"fmt"

	basemodels "soug_elwahah/internal/api/base/models"
	basesvc "soug_elwahah/internal/api/base/service"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderMongoService là data access cho collection orders
type OrderMongoService struct {
	*basesvc.BaseServiceMongoImpl[ordermodels.Order]
}

// NewOrderMongoService lấy collection từ registry
func NewOrderMongoService() (*OrderMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Orders)
	if !exist {
		return nil, fmt.Errorf("failed to get orders collection: %v", common.ErrNotFound)
	}
	return &OrderMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[ordermodels.Order](collection),
	}, nil
}

// Insert thêm đơn mới; trùng orderNumber trả ErrMongoDuplicate
func (s *OrderMongoService) Insert(ctx context.Context, o *ordermodels.Order) error {
	_, err := s.InsertOne(ctx, *o)
	return err
}

func (s *OrderMongoService) Get(ctx context.Context, id primitive.ObjectID) (*ordermodels.Order, error) {
	return s.FindOneById(ctx, id)
}

// Replace ghi đè đơn nếu version trong DB vẫn là expectedVersion
func (s *OrderMongoService) Replace(ctx context.Context, o *ordermodels.Order, expectedVersion int64) error {
	return s.ReplaceWithVersion(ctx, o.ID, expectedVersion, *o)
}

// List trả về đơn theo filter, mới nhất trước
func (s *OrderMongoService) List(ctx context.Context, filter ordermodels.OrderFilter, page, limit int64) (*basemodels.PaginateResult[ordermodels.Order], error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.FindWithPagination(ctx, filter.BSON(), page, limit, opts)
}

// SetDriverLocation ghi vị trí cuối cùng của tài xế, không tăng version.
// Frame vị trí đến liên tục; tăng version sẽ làm chuyển trạng thái khi đang giao xung đột CAS.
func (s *OrderMongoService) SetDriverLocation(ctx context.Context, id primitive.ObjectID, p ordermodels.GeoPoint, at int64) error {
	matched, _, err := s.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"driverLocation": p, "updatedAt": at}},
		nil)
	if err != nil {
		return err
	}
	if matched == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FindLate lấy đơn đang giao đã quá giờ dự kiến mà chưa báo trễ
func (s *OrderMongoService) FindLate(ctx context.Context, now int64, limit int) ([]ordermodels.Order, error) {
	filter := bson.M{
		"status":                ordermodels.StatusOutForDelivery,
		"estimatedDeliveryTime": bson.M{"$lt": now},
		"notifiedLate":          bson.M{"$ne": true},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "estimatedDeliveryTime", Value: 1}}).
		SetLimit(int64(limit))
	return s.Find(ctx, filter, opts)
}

// FlagNotifiedLate bật notifiedLate có điều kiện; true nếu chính lời gọi này đã bật
func (s *OrderMongoService) FlagNotifiedLate(ctx context.Context, id primitive.ObjectID, now int64) (bool, error) {
	_, modified, err := s.UpdateOne(ctx,
		bson.M{"_id": id, "status": ordermodels.StatusOutForDelivery, "notifiedLate": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"notifiedLate": true, "updatedAt": now}, "$inc": bson.M{"version": 1}},
		nil)
	return modified == 1, err
}
