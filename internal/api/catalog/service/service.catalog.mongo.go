// Package catalogsvc chứa data access MongoDB và nghiệp vụ của domain catalog (cửa hàng, sản phẩm, tồn kho).
package catalogsvc

import (
	"context"
	"fmt"

	basemodels "soug_elwahah/internal/api/base/models"
	basesvc "soug_elwahah/internal/api/base/service"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoreMongoService là data access cho collection catalog_stores
type StoreMongoService struct {
	*basesvc.BaseServiceMongoImpl[catalogmodels.Store]
}

// NewStoreMongoService lấy collection từ registry
func NewStoreMongoService() (*StoreMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Stores)
	if !exist {
		return nil, fmt.Errorf("failed to get stores collection: %v", common.ErrNotFound)
	}
	return &StoreMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[catalogmodels.Store](collection),
	}, nil
}

func (s *StoreMongoService) Insert(ctx context.Context, store *catalogmodels.Store) error {
	_, err := s.InsertOne(ctx, *store)
	return err
}

func (s *StoreMongoService) Get(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Store, error) {
	return s.FindOneById(ctx, id)
}

// ProductMongoService là data access cho collection catalog_products
type ProductMongoService struct {
	*basesvc.BaseServiceMongoImpl[catalogmodels.Product]
}

// NewProductMongoService lấy collection từ registry
func NewProductMongoService() (*ProductMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Products)
	if !exist {
		return nil, fmt.Errorf("failed to get products collection: %v", common.ErrNotFound)
	}
	return &ProductMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[catalogmodels.Product](collection),
	}, nil
}

func (s *ProductMongoService) Insert(ctx context.Context, p *catalogmodels.Product) error {
	_, err := s.InsertOne(ctx, *p)
	return err
}

func (s *ProductMongoService) Get(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Product, error) {
	return s.FindOneById(ctx, id)
}

func (s *ProductMongoService) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]catalogmodels.Product, error) {
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (s *ProductMongoService) ListByStore(ctx context.Context, storeID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[catalogmodels.Product], error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return s.FindWithPagination(ctx, bson.M{"storeId": storeID, "isActive": true}, page, limit, opts)
}

// Decrement trừ tồn kho có điều kiện stock >= qty; không khớp → ErrOutOfStock
func (s *ProductMongoService) Decrement(ctx context.Context, id primitive.ObjectID, qty int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{"$inc": bson.M{"stock": -qty}}
	matched, _, err := s.UpdateOne(ctx, filter, update, nil)
	if err != nil {
		return err
	}
	if matched == 0 {
		return common.WithDetails(common.ErrOutOfStock, map[string]string{"productId": id.Hex()})
	}
	return nil
}

// Increment cộng lại tồn kho (bù trừ khi hủy đơn hoặc đơn tạo thất bại)
func (s *ProductMongoService) Increment(ctx context.Context, id primitive.ObjectID, qty int) error {
	matched, _, err := s.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stock": qty}}, nil)
	if err != nil {
		return err
	}
	if matched == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetStock ghi đè tồn kho và trả về sản phẩm sau cập nhật
func (s *ProductMongoService) SetStock(ctx context.Context, id primitive.ObjectID, stock int, updatedAt int64) (*catalogmodels.Product, error) {
	update := bson.M{"$set": bson.M{"stock": stock, "updatedAt": updatedAt}}
	return s.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, nil)
}
