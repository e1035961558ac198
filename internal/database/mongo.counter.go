package database

import (
	"context"

	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter là một document bộ đếm: {_id: "payments", seq: 42}
type Counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// CounterStore cấp số thứ tự tăng dần, nguyên tử theo từng tên
type CounterStore struct {
	coll *mongo.Collection
}

func NewCounterStore(coll *mongo.Collection) *CounterStore {
	return &CounterStore{coll: coll}
}

// Next tăng và trả về giá trị mới của bộ đếm name
func (s *CounterStore) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var c Counter
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&c)
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return c.Seq, nil
}
