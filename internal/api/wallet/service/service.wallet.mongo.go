// Package walletsvc chứa data access và nghiệp vụ ví.
package walletsvc

import (
	"context"
	"fmt"

	basesvc "soug_elwahah/internal/api/base/service"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletMongoService là data access cho collection wallets
type WalletMongoService struct {
	*basesvc.BaseServiceMongoImpl[walletmodels.Wallet]
}

// NewWalletMongoService lấy collection từ registry
func NewWalletMongoService() (*WalletMongoService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Wallets)
	if !exist {
		return nil, fmt.Errorf("failed to get wallets collection: %v", common.ErrNotFound)
	}
	return &WalletMongoService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[walletmodels.Wallet](collection),
	}, nil
}

// Insert thêm ví; user đã có ví → ErrMongoDuplicate (unique userId)
func (s *WalletMongoService) Insert(ctx context.Context, w *walletmodels.Wallet) error {
	_, err := s.InsertOne(ctx, *w)
	return err
}

func (s *WalletMongoService) GetByUser(ctx context.Context, userID primitive.ObjectID) (*walletmodels.Wallet, error) {
	return s.FindOne(ctx, bson.M{"userId": userID}, nil)
}

// Replace ghi số dư và sổ giao dịch trong một lần nếu version chưa đổi
func (s *WalletMongoService) Replace(ctx context.Context, w *walletmodels.Wallet, expectedVersion int64) error {
	return s.ReplaceWithVersion(ctx, w.ID, expectedVersion, *w)
}
