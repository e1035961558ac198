package models

import (
	"fmt"
	"testing"
	"time"

	"soug_elwahah/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func newTestWallet(maxBalance float64) *Wallet {
	return NewWallet(primitive.NewObjectID(), "EGP", maxBalance, testNow)
}

func TestWallet_LedgerMatchesBalance(t *testing.T) {
	w := newTestWallet(0)
	ops := []struct {
		credit bool
		amount float64
	}{
		{true, 100}, {false, 30.5}, {true, 0.1}, {true, 0.2}, {false, 69.8},
	}
	for i, op := range ops {
		var err error
		if op.credit {
			_, err = w.Credit(Entry{Amount: op.amount}, fmt.Sprint(i), testNow)
		} else {
			_, err = w.Debit(Entry{Amount: op.amount}, fmt.Sprint(i), testNow)
		}
		require.NoError(t, err)
		assert.True(t, w.Consistent())
	}
	assert.Equal(t, 0.0, w.Balance)
	s := w.Stats()
	assert.Equal(t, 100.3, s.TotalIn)
	assert.Equal(t, 100.3, s.TotalOut)
	assert.Equal(t, 5, s.Count)
}

func TestWallet_DebitRejectsAndLeavesBalance(t *testing.T) {
	w := newTestWallet(0)
	_, err := w.Credit(Entry{Amount: 100}, "a", testNow)
	require.NoError(t, err)

	_, err = w.Debit(Entry{Type: TxOrderPayment, Amount: 150}, "b", testNow)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.Equal(t, 100.0, w.Balance)
	assert.Len(t, w.Transactions, 1)

	_, err = w.Debit(Entry{Type: TxRefund, Amount: 10}, "c", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = w.Debit(Entry{Amount: 0}, "d", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestWallet_LimitExceeded(t *testing.T) {
	w := newTestWallet(100)
	_, err := w.Credit(Entry{Amount: 100}, "a", testNow)
	require.NoError(t, err)
	_, err = w.Credit(Entry{Type: TxRefund, Amount: 0.01}, "b", testNow)
	assert.ErrorIs(t, err, common.ErrLimitExceeded)
	assert.Equal(t, 100.0, w.Balance)
}

func TestWallet_FreezeBlocksFutureMoves(t *testing.T) {
	w := newTestWallet(0)
	_, err := w.Credit(Entry{Amount: 50}, "a", testNow)
	require.NoError(t, err)

	require.NoError(t, w.Freeze("nghi gian lận", "f", testNow))
	assert.ErrorIs(t, w.Freeze("x", "g", testNow), common.ErrInvalidState)
	_, err = w.Credit(Entry{Amount: 1}, "b", testNow)
	assert.ErrorIs(t, err, common.ErrWalletFrozen)
	_, err = w.Debit(Entry{Amount: 1}, "c", testNow)
	assert.ErrorIs(t, err, common.ErrWalletFrozen)
	assert.Equal(t, 50.0, w.Balance)

	require.NoError(t, w.Unfreeze("u", testNow))
	_, err = w.Debit(Entry{Amount: 20, Reference: &Reference{Kind: RefPayment, ID: "PAY-1-1"}}, "d", testNow)
	require.NoError(t, err)

	s := w.Stats()
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 20.0, s.ByType[TxDebit])
	assert.NotContains(t, s.ByType, TxAudit)
	assert.Len(t, w.Transactions, 4)
	assert.True(t, w.Consistent())
}

func TestWallet_InvalidReference(t *testing.T) {
	w := newTestWallet(0)
	_, err := w.Credit(Entry{Amount: 5, Reference: &Reference{Kind: "User", ID: "x"}}, "a", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
