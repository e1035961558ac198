// Package basesvc cung cấp repository MongoDB generic dùng chung cho các domain service.
package basesvc

import (
	"context"
	"errors"

	basemodels "soug_elwahah/internal/api/base/models"
	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BaseServiceMongoImpl triển khai các thao tác CRUD cơ bản cho một collection.
//
// Type Parameters:
//   - T: kiểu model, phải có field `bson:"_id"`
type BaseServiceMongoImpl[T any] struct {
	collection *mongo.Collection
}

// NewBaseServiceMongo tạo mới BaseServiceMongoImpl
func NewBaseServiceMongo[T any](collection *mongo.Collection) *BaseServiceMongoImpl[T] {
	return &BaseServiceMongoImpl[T]{collection: collection}
}

// Collection trả về collection MongoDB (dùng khi domain service cần truy vấn đặc thù)
func (s *BaseServiceMongoImpl[T]) Collection() *mongo.Collection {
	return s.collection
}

// InsertOne tạo mới một bản ghi và trả về _id
func (s *BaseServiceMongoImpl[T]) InsertOne(ctx context.Context, data T) (primitive.ObjectID, error) {
	result, err := s.collection.InsertOne(ctx, data)
	if err != nil {
		return primitive.NilObjectID, common.ConvertMongoError(err)
	}
	id, _ := result.InsertedID.(primitive.ObjectID)
	return id, nil
}

// FindOne tìm một document theo điều kiện lọc
func (s *BaseServiceMongoImpl[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (*T, error) {
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.FindOne()
	}

	var result T
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, common.ConvertMongoError(err)
	}
	return &result, nil
}

// FindOneById tìm document theo _id
func (s *BaseServiceMongoImpl[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return s.FindOne(ctx, bson.M{"_id": id}, nil)
}

// Find tìm tất cả bản ghi theo điều kiện lọc
func (s *BaseServiceMongoImpl[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// FindWithPagination tìm bản ghi theo trang
func (s *BaseServiceMongoImpl[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	if filter == nil {
		filter = bson.D{}
	}
	if opts == nil {
		opts = options.Find()
	}
	page, limit = basemodels.NormalizePage(page, limit)
	opts.SetSkip((page - 1) * limit).SetLimit(limit)

	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return basemodels.NewPaginateResult(items, page, limit, total), nil
}

// UpdateOne cập nhật một document, trả về số document khớp điều kiện và số bị sửa
func (s *BaseServiceMongoImpl[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (matched int64, modified int64, err error) {
	result, err := s.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return 0, 0, common.ConvertMongoError(err)
	}
	return result.MatchedCount, result.ModifiedCount, nil
}

// FindOneAndUpdate cập nhật và trả về document sau khi cập nhật
func (s *BaseServiceMongoImpl[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts *options.FindOneAndUpdateOptions) (*T, error) {
	if opts == nil {
		opts = options.FindOneAndUpdate()
	}
	opts.SetReturnDocument(options.After)

	var result T
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, common.ConvertMongoError(err)
	}
	return &result, nil
}

// ReplaceWithVersion thay thế document nếu version trong DB vẫn là expectedVersion (CAS).
// doc phải mang version mới (expectedVersion+1).
//
// Returns:
//   - common.ErrNotFound nếu _id không tồn tại
//   - common.ErrVersionConflict nếu document đã bị ghi bởi thao tác khác
func (s *BaseServiceMongoImpl[T]) ReplaceWithVersion(ctx context.Context, id primitive.ObjectID, expectedVersion int64, doc T) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": id, "version": expectedVersion}, doc)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if count == 0 {
		return common.ErrNotFound
	}
	return common.ErrVersionConflict
}

// CountDocuments đếm số document theo điều kiện lọc
func (s *BaseServiceMongoImpl[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	n, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return n, nil
}

// DeleteOne xóa một document theo điều kiện lọc
func (s *BaseServiceMongoImpl[T]) DeleteOne(ctx context.Context, filter interface{}) error {
	result, err := s.collection.DeleteOne(ctx, filter)
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteMany xóa nhiều document, trả về số document đã xóa
func (s *BaseServiceMongoImpl[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return result.DeletedCount, nil
}
