// Package paymentsvc chứa data access và nghiệp vụ thanh toán, hoàn tiền.
package paymentsvc

import (
	"context"
	"fmt"

	basesvc "soug_elwahah/internal/api/base/service"
	paymentmodels "soug_elwahah/internal/api/payment/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentMongoService là data access cho collection payments
type PaymentMongoService struct {
	*basesvc.BaseServiceMongoImpl[paymentmodels.Payment]
}

// NewPaymentMongoService lấy collection từ registry
func NewPaymentMongoService() (*PaymentMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Payments)
	if !exist {
		return nil, fmt.Errorf("failed to get payments collection: %v", common.ErrNotFound)
	}
	return &PaymentMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[paymentmodels.Payment](collection),
	}, nil
}

func (s *PaymentMongoService) Insert(ctx context.Context, p *paymentmodels.Payment) error {
	_, err := s.InsertOne(ctx, *p)
	return err
}

// Get tìm theo paymentId dạng PAY-...
func (s *PaymentMongoService) Get(ctx context.Context, paymentID string) (*paymentmodels.Payment, error) {
	return s.FindOne(ctx, bson.M{"paymentId": paymentID}, nil)
}

// ListByOrder trả các lần thanh toán của đơn theo thứ tự thử
func (s *PaymentMongoService) ListByOrder(ctx context.Context, orderID primitive.ObjectID) ([]paymentmodels.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "attempt", Value: 1}})
	return s.Find(ctx, bson.M{"orderId": orderID}, opts)
}

func (s *PaymentMongoService) Replace(ctx context.Context, p *paymentmodels.Payment, expectedVersion int64) error {
	return s.ReplaceWithVersion(ctx, p.ID, expectedVersion, *p)
}
