// Package models - ví của user và sổ giao dịch nhúng thuộc domain wallet.
package models

import (
	"time"

	"soug_elwahah/internal/common"
	"soug_elwahah/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionType là loại giao dịch ví
type TransactionType string

const (
	TxCredit       TransactionType = "credit"
	TxRefund       TransactionType = "refund"
	TxDeliveryFee  TransactionType = "delivery_fee"
	TxDebit        TransactionType = "debit"
	TxOrderPayment TransactionType = "order_payment"
	TxCommission   TransactionType = "commission"
	TxAudit        TransactionType = "audit" // ghi nhận khóa/mở ví, số tiền 0
)

// Inflow: loại giao dịch cộng tiền
func (t TransactionType) Inflow() bool {
	return t == TxCredit || t == TxRefund || t == TxDeliveryFee
}

// Outflow: loại giao dịch trừ tiền
func (t TransactionType) Outflow() bool {
	return t == TxDebit || t == TxOrderPayment || t == TxCommission
}

// ReferenceKind là loại đối tượng mà giao dịch tham chiếu
type ReferenceKind string

const (
	RefOrder      ReferenceKind = "Order"
	RefPayment    ReferenceKind = "Payment"
	RefDelivery   ReferenceKind = "Delivery"
	RefCommission ReferenceKind = "Commission"
)

// Reference là tham chiếu có kiểu tới đối tượng nghiệp vụ
type Reference struct {
	Kind ReferenceKind `json:"kind" bson:"kind"`
	ID   string        `json:"id" bson:"id"`
}

// Valid kiểm tra loại tham chiếu
func (r *Reference) Valid() bool {
	if r == nil {
		return true
	}
	switch r.Kind {
	case RefOrder, RefPayment, RefDelivery, RefCommission:
		return r.ID != ""
	}
	return false
}

const TxStatusCompleted = "completed"

// Transaction là một dòng trong sổ giao dịch; BalanceAfter là số dư ngay sau giao dịch
type Transaction struct {
	TxID         string          `json:"txId" bson:"txId"`
	Type         TransactionType `json:"type" bson:"type"`
	Amount       float64         `json:"amount" bson:"amount"`
	Description  string          `json:"description,omitempty" bson:"description,omitempty"`
	Reference    *Reference      `json:"reference,omitempty" bson:"reference,omitempty"`
	BalanceAfter float64         `json:"balanceAfter" bson:"balanceAfter"`
	Status       string          `json:"status" bson:"status"`
	CreatedAt    int64           `json:"createdAt" bson:"createdAt"`
}

// Settings là cấu hình riêng của ví; MaxBalance <= 0 là không giới hạn
type Settings struct {
	MaxBalance float64 `json:"maxBalance" bson:"maxBalance"`
}

// Wallet là ví của một user. Số dư và sổ giao dịch luôn được ghi cùng một lần (CAS theo Version).
type Wallet struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID `json:"userId" bson:"userId" index:"unique"`
	Balance           float64            `json:"balance" bson:"balance"`
	Currency          string             `json:"currency" bson:"currency"`
	IsFrozen          bool               `json:"isFrozen" bson:"isFrozen"`
	FrozenReason      string             `json:"frozenReason,omitempty" bson:"frozenReason,omitempty"`
	Settings          Settings           `json:"settings" bson:"settings"`
	Transactions      []Transaction      `json:"transactions" bson:"transactions"`
	LastTransactionAt *int64             `json:"lastTransactionAt,omitempty" bson:"lastTransactionAt,omitempty"`

	Version   int64 `json:"version" bson:"version"`
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// NewWallet tạo ví rỗng
func NewWallet(userID primitive.ObjectID, currency string, maxBalance float64, now time.Time) *Wallet {
	ts := now.UnixMilli()
	return &Wallet{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Currency:     currency,
		Settings:     Settings{MaxBalance: maxBalance},
		Transactions: []Transaction{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// Entry là yêu cầu ghi sổ
type Entry struct {
	Type        TransactionType
	Amount      float64
	Description string
	Reference   *Reference
}

func (e Entry) validate() error {
	if e.Amount <= 0 {
		return common.WithDetails(common.ErrInvalidInput, map[string]string{"amount": "phải lớn hơn 0"})
	}
	if !e.Reference.Valid() {
		return common.WithDetails(common.ErrInvalidInput, map[string]string{"reference": "không hợp lệ"})
	}
	return nil
}

func (w *Wallet) append(e Entry, txID string, balance float64, now time.Time) *Transaction {
	ts := now.UnixMilli()
	w.Balance = balance
	w.Transactions = append(w.Transactions, Transaction{
		TxID:         txID,
		Type:         e.Type,
		Amount:       e.Amount,
		Description:  e.Description,
		Reference:    e.Reference,
		BalanceAfter: balance,
		Status:       TxStatusCompleted,
		CreatedAt:    ts,
	})
	w.LastTransactionAt = &ts
	w.UpdatedAt = ts
	return &w.Transactions[len(w.Transactions)-1]
}

// Credit cộng tiền; Type rỗng → credit, chỉ nhận loại inflow
func (w *Wallet) Credit(e Entry, txID string, now time.Time) (*Transaction, error) {
	if e.Type == "" {
		e.Type = TxCredit
	}
	if !e.Type.Inflow() {
		return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"type": string(e.Type)})
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	if w.IsFrozen {
		return nil, common.ErrWalletFrozen
	}
	next := utility.AddMoney(w.Balance, e.Amount)
	if w.Settings.MaxBalance > 0 && utility.CmpMoney(next, w.Settings.MaxBalance) > 0 {
		return nil, common.WithDetails(common.ErrLimitExceeded, map[string]float64{
			"maxBalance": w.Settings.MaxBalance,
			"balance":    w.Balance,
		})
	}
	return w.append(e, txID, next, now), nil
}

// Debit trừ tiền; Type rỗng → debit, chỉ nhận loại outflow
func (w *Wallet) Debit(e Entry, txID string, now time.Time) (*Transaction, error) {
	if e.Type == "" {
		e.Type = TxDebit
	}
	if !e.Type.Outflow() {
		return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"type": string(e.Type)})
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	if w.IsFrozen {
		return nil, common.ErrWalletFrozen
	}
	if utility.CmpMoney(e.Amount, w.Balance) > 0 {
		return nil, common.WithDetails(common.ErrInsufficientBalance, map[string]float64{
			"balance": w.Balance,
			"amount":  e.Amount,
		})
	}
	return w.append(e, txID, utility.SubMoney(w.Balance, e.Amount), now), nil
}

// Freeze khóa ví; giao dịch đã ghi giữ nguyên, chỉ chặn giao dịch mới
func (w *Wallet) Freeze(reason, txID string, now time.Time) error {
	if w.IsFrozen {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"wallet": "đã bị khóa"})
	}
	w.IsFrozen = true
	w.FrozenReason = reason
	w.append(Entry{Type: TxAudit, Description: "freeze: " + reason}, txID, w.Balance, now)
	return nil
}

// Unfreeze mở khóa ví
func (w *Wallet) Unfreeze(txID string, now time.Time) error {
	if !w.IsFrozen {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"wallet": "không bị khóa"})
	}
	w.IsFrozen = false
	w.FrozenReason = ""
	w.append(Entry{Type: TxAudit, Description: "unfreeze"}, txID, w.Balance, now)
	return nil
}

// Stats là số liệu gộp từ sổ giao dịch
type Stats struct {
	Balance           float64                     `json:"balance"`
	TotalIn           float64                     `json:"totalIn"`
	TotalOut          float64                     `json:"totalOut"`
	ByType            map[TransactionType]float64 `json:"byType"`
	Count             int                         `json:"count"`
	LastTransactionAt *int64                      `json:"lastTransactionAt,omitempty"`
}

// Stats gộp sổ giao dịch theo loại; giao dịch audit không tính
func (w *Wallet) Stats() Stats {
	in, out := utility.Dec(0), utility.Dec(0)
	byType := map[TransactionType]float64{}
	count := 0
	for _, tx := range w.Transactions {
		if tx.Type == TxAudit {
			continue
		}
		count++
		byType[tx.Type] = utility.AddMoney(byType[tx.Type], tx.Amount)
		switch {
		case tx.Type.Inflow():
			in = in.Add(utility.Dec(tx.Amount))
		case tx.Type.Outflow():
			out = out.Add(utility.Dec(tx.Amount))
		}
	}
	return Stats{
		Balance:           w.Balance,
		TotalIn:           utility.Float(in),
		TotalOut:          utility.Float(out),
		ByType:            byType,
		Count:             count,
		LastTransactionAt: w.LastTransactionAt,
	}
}

// Consistent: số dư bằng balanceAfter của giao dịch cuối
func (w *Wallet) Consistent() bool {
	if len(w.Transactions) == 0 {
		return w.Balance == 0
	}
	return utility.CmpMoney(w.Balance, w.Transactions[len(w.Transactions)-1].BalanceAfter) == 0
}

// Clone sao chép sâu ví
func (w *Wallet) Clone() *Wallet {
	cp := *w
	cp.Transactions = make([]Transaction, len(w.Transactions))
	for i, tx := range w.Transactions {
		if tx.Reference != nil {
			ref := *tx.Reference
			tx.Reference = &ref
		}
		cp.Transactions[i] = tx
	}
	if w.LastTransactionAt != nil {
		ts := *w.LastTransactionAt
		cp.LastTransactionAt = &ts
	}
	return &cp
}
