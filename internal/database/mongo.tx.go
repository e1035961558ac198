package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TxRunner chạy một nhóm thao tác nhiều document như một đơn vị.
// fn có thể được gọi lại nhiều lần khi MongoDB báo lỗi transient, nên fn
// không được giữ trạng thái giữa các lần gọi.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxRunner dùng session.WithTransaction (cần replica set)
type MongoTxRunner struct {
	client *mongo.Client
}

// DirectRunner chạy fn trực tiếp, dùng cho MongoDB standalone và test
type DirectRunner struct{}

func (DirectRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewTxRunner chọn runner theo cấu hình MONGODB_TRANSACTIONS
func NewTxRunner(client *mongo.Client, enabled bool) TxRunner {
	if !enabled || client == nil {
		return DirectRunner{}
	}
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Đã ở trong transaction thì dùng luôn session hiện tại
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txOpts)
	return err
}

// Atomic cho biết runner có rollback khi fn lỗi hay không.
// Runner không atomic buộc service tự bù trừ các bước đã ghi.
func Atomic(r TxRunner) bool {
	_, ok := r.(*MongoTxRunner)
	return ok
}
