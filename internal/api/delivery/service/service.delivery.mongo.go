// Package deliverysvc chứa data access và nghiệp vụ chuyến giao hàng.
package deliverysvc

import (
	"context"
	"fmt"

	basesvc "soug_elwahah/internal/api/base/service"
	deliverymodels "soug_elwahah/internal/api/delivery/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryMongoService là data access cho collection deliveries
type DeliveryMongoService struct {
	*basesvc.BaseServiceMongoImpl[deliverymodels.Delivery]
}

// NewDeliveryMongoService lấy collection từ registry
func NewDeliveryMongoService() (*DeliveryMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Deliveries)
	if !exist {
		return nil, fmt.Errorf("failed to get deliveries collection: %v", common.ErrNotFound)
	}
	return &DeliveryMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[deliverymodels.Delivery](collection),
	}, nil
}

// Insert thêm chuyến giao; đơn đã có chuyến giao → ErrMongoDuplicate (unique orderId)
func (s *DeliveryMongoService) Insert(ctx context.Context, d *deliverymodels.Delivery) error {
	_, err := s.InsertOne(ctx, *d)
	return err
}

func (s *DeliveryMongoService) Get(ctx context.Context, id primitive.ObjectID) (*deliverymodels.Delivery, error) {
	return s.FindOneById(ctx, id)
}

func (s *DeliveryMongoService) GetByOrder(ctx context.Context, orderID primitive.ObjectID) (*deliverymodels.Delivery, error) {
	return s.FindOne(ctx, bson.M{"orderId": orderID}, nil)
}

func (s *DeliveryMongoService) Replace(ctx context.Context, d *deliverymodels.Delivery, expectedVersion int64) error {
	return s.ReplaceWithVersion(ctx, d.ID, expectedVersion, *d)
}

// SetLastLocation ghi vị trí cuối; tăng version để CAS đang chạy đọc lại
func (s *DeliveryMongoService) SetLastLocation(ctx context.Context, id primitive.ObjectID, loc deliverymodels.Location) error {
	matched, _, err := s.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastLocation": loc, "updatedAt": loc.Timestamp}, "$inc": bson.M{"version": 1}},
		nil)
	if err != nil {
		return err
	}
	if matched == 0 {
		return common.ErrNotFound
	}
	return nil
}
