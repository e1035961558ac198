package walletsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	notifmodels "soug_elwahah/internal/api/notification/models"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"
	"soug_elwahah/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxMutateAttempts = 5

// WalletRepository là kho lưu ví
type WalletRepository interface {
	Insert(ctx context.Context, w *walletmodels.Wallet) error
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*walletmodels.Wallet, error)
	Replace(ctx context.Context, w *walletmodels.Wallet, expectedVersion int64) error
}

// WalletService là nghiệp vụ ví; payment service dùng AddFunds/DeductFunds trong transaction của nó
type WalletService struct {
	wallets    WalletRepository
	notifier   notification.Notifier
	currency   string
	maxBalance float64
	now        func() time.Time
	newTxID    func() string
}

func NewWalletService(wallets WalletRepository, notifier notification.Notifier, currency string, maxBalance float64) *WalletService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &WalletService{
		wallets:    wallets,
		notifier:   notifier,
		currency:   currency,
		maxBalance: maxBalance,
		now:        time.Now,
		newTxID:    utility.NewUUID,
	}
}

// GetOrCreate trả ví của user, tạo ví rỗng nếu chưa có
func (s *WalletService) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*walletmodels.Wallet, error) {
	w, err := s.wallets.GetByUser(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	w = walletmodels.NewWallet(userID, s.currency, s.maxBalance, s.now())
	if err := s.wallets.Insert(ctx, w); err != nil {
		// request khác vừa tạo ví
		if common.IsDuplicate(err) {
			return s.wallets.GetByUser(ctx, userID)
		}
		return nil, err
	}
	return w, nil
}

// mutate đọc ví, áp fn rồi CAS theo version; xung đột thì đọc lại và thử lại
func (s *WalletService) mutate(ctx context.Context, userID primitive.ObjectID, fn func(w *walletmodels.Wallet) error) (*walletmodels.Wallet, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		w, err := s.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		expected := w.Version
		if err := fn(w); err != nil {
			return nil, err
		}
		w.Version = expected + 1
		err = s.wallets.Replace(ctx, w, expected)
		if common.Retryable(ctx, err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, common.ErrVersionConflict
}

func audit(ctx context.Context, action string, actor authmodels.Actor, w *walletmodels.Wallet, details map[string]interface{}) {
	logger.LogAction(ctx, logger.AuditAction{
		Action:       action,
		UserID:       actor.UserID.Hex(),
		Role:         string(actor.ActiveRole),
		ResourceType: "wallet",
		ResourceID:   w.ID.Hex(),
		Details:      details,
	})
}

func txDetails(w *walletmodels.Wallet, tx *walletmodels.Transaction) map[string]interface{} {
	d := map[string]interface{}{
		"owner":        w.UserID.Hex(),
		"txId":         tx.TxID,
		"type":         string(tx.Type),
		"amount":       tx.Amount,
		"balanceAfter": tx.BalanceAfter,
	}
	if tx.Reference != nil {
		d["reference"] = string(tx.Reference.Kind) + ":" + tx.Reference.ID
	}
	return d
}

// AddFunds cộng tiền vào ví của userID (loại inflow, mặc định credit)
func (s *WalletService) AddFunds(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, e walletmodels.Entry) (*walletmodels.Wallet, *walletmodels.Transaction, error) {
	var tx walletmodels.Transaction
	w, err := s.mutate(ctx, userID, func(w *walletmodels.Wallet) error {
		t, err := w.Credit(e, s.newTxID(), s.now())
		if err != nil {
			return err
		}
		tx = *t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	audit(ctx, "wallet_credit", actor, w, txDetails(w, &tx))
	return w, &tx, nil
}

// DeductFunds trừ tiền khỏi ví của userID (loại outflow, mặc định debit)
func (s *WalletService) DeductFunds(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, e walletmodels.Entry) (*walletmodels.Wallet, *walletmodels.Transaction, error) {
	var tx walletmodels.Transaction
	w, err := s.mutate(ctx, userID, func(w *walletmodels.Wallet) error {
		t, err := w.Debit(e, s.newTxID(), s.now())
		if err != nil {
			return err
		}
		tx = *t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	audit(ctx, "wallet_debit", actor, w, txDetails(w, &tx))
	return w, &tx, nil
}

// Freeze khóa ví (admin)
func (s *WalletService) Freeze(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, reason string) (*walletmodels.Wallet, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	w, err := s.mutate(ctx, userID, func(w *walletmodels.Wallet) error {
		return w.Freeze(reason, s.newTxID(), s.now())
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, "wallet_freeze", actor, w, map[string]interface{}{"owner": userID.Hex(), "reason": reason})
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"walletId": w.ID.Hex(),
		"userId":   userID.Hex(),
	}).Warn("Ví đã bị khóa")

	s.notifier.Notify(ctx, notification.Message{
		RecipientID: userID,
		Type:        notification.TypeWalletFrozen,
		Title:       "Ví của bạn đã bị khóa",
		Message:     fmt.Sprintf("Lý do: %s", reason),
		Related:     notification.RelatedTo(notifmodels.RelatedWallet, w.ID),
		DedupeKey:   fmt.Sprintf("wallet:%s:v%d", w.ID.Hex(), w.Version),
	})
	return w, nil
}

// Unfreeze mở khóa ví (admin)
func (s *WalletService) Unfreeze(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID) (*walletmodels.Wallet, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	w, err := s.mutate(ctx, userID, func(w *walletmodels.Wallet) error {
		return w.Unfreeze(s.newTxID(), s.now())
	})
	if err != nil {
		return nil, err
	}
	audit(ctx, "wallet_unfreeze", actor, w, map[string]interface{}{"owner": userID.Hex()})
	return w, nil
}

// Stats gộp sổ giao dịch của ví
func (s *WalletService) Stats(ctx context.Context, userID primitive.ObjectID) (*walletmodels.Stats, error) {
	w, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := w.Stats()
	return &st, nil
}

// Transactions trả sổ giao dịch theo trang, mới nhất trước
func (s *WalletService) Transactions(ctx context.Context, userID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[walletmodels.Transaction], error) {
	w, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	n := len(w.Transactions)
	newest := make([]walletmodels.Transaction, n)
	for i, tx := range w.Transactions {
		newest[n-1-i] = tx
	}
	return basemodels.Paginate(newest, page, limit), nil
}
