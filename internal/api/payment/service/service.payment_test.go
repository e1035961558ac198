package paymentsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	paymentmodels "soug_elwahah/internal/api/payment/models"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	walletsvc "soug_elwahah/internal/api/wallet/service"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type memPayments struct {
	mu   sync.Mutex
	byID map[string]*paymentmodels.Payment
	// racer chạy một lần ngay trước Replace kế tiếp, mô phỏng request khác ghi trước
	racer func(cur *paymentmodels.Payment)
}

func (m *memPayments) Insert(_ context.Context, p *paymentmodels.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.PaymentID]; ok {
		return common.ErrMongoDuplicate
	}
	m.byID[p.PaymentID] = p.Clone()
	return nil
}

func (m *memPayments) Get(_ context.Context, id string) (*paymentmodels.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memPayments) ListByOrder(_ context.Context, orderID primitive.ObjectID) ([]paymentmodels.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []paymentmodels.Payment
	for _, p := range m.byID {
		if p.OrderID == orderID {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (m *memPayments) Replace(_ context.Context, p *paymentmodels.Payment, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[p.PaymentID]
	if !ok {
		return common.ErrNotFound
	}
	if m.racer != nil {
		m.racer(cur)
		m.racer = nil
	}
	if cur.Version != expected {
		return common.ErrVersionConflict
	}
	m.byID[p.PaymentID] = p.Clone()
	return nil
}

type memCounter struct {
	mu  sync.Mutex
	seq map[string]int64
}

func (c *memCounter) Next(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[name]++
	return c.seq[name], nil
}

type memOrders struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*ordermodels.Order
	syncErr error
}

func (m *memOrders) Load(_ context.Context, id primitive.ObjectID) (*ordermodels.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return o.Clone(), nil
}

func (m *memOrders) SyncPayment(_ context.Context, id primitive.ObjectID, summary ordermodels.PaymentSummary) (*ordermodels.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncErr != nil {
		return nil, m.syncErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if err := o.ApplyPayment(summary, testNow); err != nil {
		return nil, err
	}
	o.Version++
	return o.Clone(), nil
}

type memWallets struct {
	mu     sync.Mutex
	byUser map[primitive.ObjectID]*walletmodels.Wallet
}

func (m *memWallets) Insert(_ context.Context, w *walletmodels.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[w.UserID]; ok {
		return common.ErrMongoDuplicate
	}
	m.byUser[w.UserID] = w.Clone()
	return nil
}

func (m *memWallets) GetByUser(_ context.Context, userID primitive.ObjectID) (*walletmodels.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byUser[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return w.Clone(), nil
}

func (m *memWallets) Replace(_ context.Context, w *walletmodels.Wallet, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byUser[w.UserID]
	if !ok {
		return common.ErrNotFound
	}
	if cur.Version != expected {
		return common.ErrVersionConflict
	}
	m.byUser[w.UserID] = w.Clone()
	return nil
}

type recNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (r *recNotifier) Notify(_ context.Context, msgs ...notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msgs...)
}

func (r *recNotifier) count(uid primitive.ObjectID, typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.RecipientID == uid && m.Type == typ {
			n++
		}
	}
	return n
}

func actorOf(uid primitive.ObjectID, role authmodels.Role) authmodels.Actor {
	return authmodels.Actor{UserID: uid, Roles: authmodels.NewRoleSet(role), ActiveRole: role}
}

type fixture struct {
	svc      *PaymentService
	payments *memPayments
	orders   *memOrders
	wallets  *walletsvc.WalletService
	notifier *recNotifier
	customer authmodels.Actor
	owner    authmodels.Actor
	admin    authmodels.Actor
	order    *ordermodels.Order
}

func newFixture(t *testing.T, total float64) *fixture {
	t.Helper()
	f := &fixture{
		payments: &memPayments{byID: map[string]*paymentmodels.Payment{}},
		orders:   &memOrders{byID: map[primitive.ObjectID]*ordermodels.Order{}},
		notifier: &recNotifier{},
		customer: actorOf(primitive.NewObjectID(), authmodels.RoleCustomer),
		owner:    actorOf(primitive.NewObjectID(), authmodels.RoleStore),
		admin:    actorOf(primitive.NewObjectID(), authmodels.RoleAdmin),
	}
	f.order = &ordermodels.Order{
		ID:           primitive.NewObjectID(),
		CustomerID:   f.customer.UserID,
		StoreOwnerID: f.owner.UserID,
		TotalAmount:  total,
		Currency:     "EGP",
		Status:       ordermodels.StatusPending,
		Payment:      ordermodels.PaymentSummary{Status: ordermodels.PaymentPending, Amount: total},
	}
	f.orders.byID[f.order.ID] = f.order
	f.wallets = walletsvc.NewWalletService(&memWallets{byUser: map[primitive.ObjectID]*walletmodels.Wallet{}}, nil, "EGP", 0)
	f.svc = NewPaymentService(f.payments, &memCounter{seq: map[string]int64{}}, f.orders, f.wallets, database.DirectRunner{}, f.notifier)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) fund(t *testing.T, amount float64) {
	t.Helper()
	_, _, err := f.wallets.AddFunds(context.Background(), f.admin, f.customer.UserID, walletmodels.Entry{Amount: amount})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T) float64 {
	t.Helper()
	w, err := f.wallets.GetOrCreate(context.Background(), f.customer.UserID)
	require.NoError(t, err)
	return w.Balance
}

func TestPaymentService_WalletInsufficientKeepsOrderPending(t *testing.T) {
	f := newFixture(t, 150)
	f.fund(t, 100)
	ctx := context.Background()

	_, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodWallet)
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)

	o, _ := f.orders.Load(ctx, f.order.ID)
	assert.Equal(t, ordermodels.PaymentPending, o.Payment.Status)
	assert.Equal(t, 100.0, f.balance(t))

	list, err := f.svc.ListByOrder(ctx, f.customer, f.order.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ordermodels.PaymentFailed, list[0].Status)
	assert.NotEmpty(t, list[0].FailureReason)
	assert.Equal(t, 1, f.notifier.count(f.customer.UserID, notification.TypePaymentFailed))
}

func TestPaymentService_WalletPayAndRefund(t *testing.T) {
	f := newFixture(t, 145)
	f.fund(t, 200)
	ctx := context.Background()

	p, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodWallet)
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentPaid, p.Status)
	assert.Equal(t, fmt.Sprintf("PAY-%d-1", testNow.UnixMilli()), p.PaymentID)
	assert.NotEmpty(t, p.TransactionID)
	assert.Equal(t, 55.0, f.balance(t))
	assert.Equal(t, 1, f.notifier.count(f.owner.UserID, notification.TypePaymentPaid))

	o, _ := f.orders.Load(ctx, f.order.ID)
	assert.Equal(t, ordermodels.PaymentPaid, o.Payment.Status)
	assert.Equal(t, p.PaymentID, o.Payment.PaymentID)

	_, err = f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodCash)
	assert.ErrorIs(t, err, common.ErrAlreadyPaid)

	stranger := actorOf(primitive.NewObjectID(), authmodels.RoleStore)
	_, err = f.svc.ProcessRefund(ctx, stranger, p.PaymentID, 0, "x")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.ProcessRefund(ctx, f.owner, p.PaymentID, 146, "quá số tiền")
	assert.ErrorIs(t, err, common.ErrAmountMismatch)

	p, err = f.svc.ProcessRefund(ctx, f.owner, p.PaymentID, 0, "hết hàng")
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentRefunded, p.Status)
	assert.Equal(t, 145.0, p.Refund.RefundAmount)
	assert.Equal(t, 200.0, f.balance(t))
	assert.Equal(t, 1, f.notifier.count(f.customer.UserID, notification.TypePaymentRefunded))

	o, _ = f.orders.Load(ctx, f.order.ID)
	assert.Equal(t, ordermodels.PaymentRefunded, o.Payment.Status)

	_, err = f.svc.ProcessRefund(ctx, f.admin, p.PaymentID, 0, "lần hai")
	assert.ErrorIs(t, err, common.ErrAlreadyRefunded)
	assert.Equal(t, 200.0, f.balance(t))
}

func TestPaymentService_RefundLoserGetsAlreadyRefunded(t *testing.T) {
	f := newFixture(t, 145)
	f.fund(t, 200)
	ctx := context.Background()
	p, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodWallet)
	require.NoError(t, err)

	f.payments.racer = func(cur *paymentmodels.Payment) {
		_, err := cur.ApplyRefund(f.admin.UserID, 0, "admin hoàn trước", testNow)
		require.NoError(t, err)
		cur.Version++
	}
	_, err = f.svc.ProcessRefund(ctx, f.owner, p.PaymentID, 0, "hết hàng")
	assert.ErrorIs(t, err, common.ErrAlreadyRefunded)
	assert.Equal(t, 55.0, f.balance(t), "bên thua không cộng ví")
	assert.Zero(t, f.notifier.count(f.customer.UserID, notification.TypePaymentRefunded))
}

func TestPaymentService_ConcurrentRefundsRefundOnce(t *testing.T) {
	f := newFixture(t, 145)
	f.fund(t, 200)
	ctx := context.Background()
	p, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodWallet)
	require.NoError(t, err)

	actors := []authmodels.Actor{f.owner, f.admin}
	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, a := range actors {
		wg.Add(1)
		go func(i int, a authmodels.Actor) {
			defer wg.Done()
			_, errs[i] = f.svc.ProcessRefund(ctx, a, p.PaymentID, 0, "song song")
		}(i, a)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrAlreadyRefunded)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 200.0, f.balance(t))
}

func TestPaymentService_CashAndGateway(t *testing.T) {
	f := newFixture(t, 80)
	ctx := context.Background()

	_, err := f.svc.ProcessPayment(ctx, f.owner, f.order.ID, paymentmodels.MethodCash)
	assert.ErrorIs(t, err, common.ErrForbidden)

	p, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodCard)
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentProcessing, p.Status)
	assert.Equal(t, "mock", p.GatewayResponse["gateway"])
	assert.Equal(t, p.TransactionID, p.GatewayResponse["reference"])

	_, err = f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodCash)
	assert.ErrorIs(t, err, common.ErrInvalidState)

	_, err = f.svc.ConfirmGateway(ctx, f.customer, p.PaymentID, true, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	p, err = f.svc.ConfirmGateway(ctx, f.admin, p.PaymentID, false, map[string]interface{}{"code": "DECLINED"})
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentFailed, p.Status)
	assert.Equal(t, "DECLINED", p.GatewayResponse["code"])

	p, err = f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodCash)
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentPaid, p.Status)
	assert.Equal(t, 2, p.Attempt)

	// refund tiền mặt không đụng tới ví
	_, err = f.svc.ProcessRefund(ctx, f.admin, p.PaymentID, 30, "trả một phần")
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.balance(t))
}

func TestPaymentService_CompensatesWalletWhenOrderSyncFails(t *testing.T) {
	f := newFixture(t, 50)
	f.fund(t, 100)
	f.orders.syncErr = errors.New("orders unavailable")
	ctx := context.Background()

	_, err := f.svc.ProcessPayment(ctx, f.customer, f.order.ID, paymentmodels.MethodWallet)
	require.Error(t, err)
	assert.Equal(t, 100.0, f.balance(t))

	list, _ := f.payments.ListByOrder(ctx, f.order.ID)
	require.Len(t, list, 1)
	assert.Equal(t, ordermodels.PaymentFailed, list[0].Status)

	w, err := f.wallets.GetOrCreate(ctx, f.customer.UserID)
	require.NoError(t, err)
	assert.True(t, w.Consistent())
	last := w.Transactions[len(w.Transactions)-1]
	assert.Equal(t, walletmodels.TxRefund, last.Type)
	assert.Equal(t, walletmodels.RefPayment, last.Reference.Kind)
}
