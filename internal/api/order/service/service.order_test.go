package ordersvc

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memOrders là kho đơn trong bộ nhớ với cùng ngữ nghĩa CAS như ReplaceWithVersion
type memOrders struct {
	mu        sync.Mutex
	data      map[primitive.ObjectID]ordermodels.Order
	numbers   map[string]bool
	conflicts int // số lần Replace kế tiếp bị ép trả VersionConflict
}

func newMemOrders() *memOrders {
	return &memOrders{data: map[primitive.ObjectID]ordermodels.Order{}, numbers: map[string]bool{}}
}

func (m *memOrders) Insert(_ context.Context, o *ordermodels.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numbers[o.OrderNumber] {
		return common.ErrMongoDuplicate
	}
	m.numbers[o.OrderNumber] = true
	m.data[o.ID] = *o.Clone()
	return nil
}

func (m *memOrders) Get(_ context.Context, id primitive.ObjectID) (*ordermodels.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return o.Clone(), nil
}

func (m *memOrders) Replace(_ context.Context, o *ordermodels.Order, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[o.ID]
	if !ok {
		return common.ErrNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		return common.ErrVersionConflict
	}
	if cur.Version != expectedVersion {
		return common.ErrVersionConflict
	}
	m.data[o.ID] = *o.Clone()
	return nil
}

func (m *memOrders) List(_ context.Context, f ordermodels.OrderFilter, page, limit int64) (*basemodels.PaginateResult[ordermodels.Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ordermodels.Order
	for _, o := range m.data {
		o := o
		if f.Matches(&o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return basemodels.Paginate(out, page, limit), nil
}

func (m *memOrders) SetDriverLocation(_ context.Context, id primitive.ObjectID, p ordermodels.GeoPoint, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.data[id]
	if !ok {
		return common.ErrNotFound
	}
	o.DriverLocation = &p
	o.UpdatedAt = at
	m.data[id] = o
	return nil
}

type memCatalog struct {
	mu       sync.Mutex
	stores   map[primitive.ObjectID]catalogmodels.Store
	products map[primitive.ObjectID]catalogmodels.Product
}

func (c *memCatalog) GetStore(_ context.Context, id primitive.ObjectID) (*catalogmodels.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stores[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (c *memCatalog) FindProducts(_ context.Context, ids []primitive.ObjectID) ([]catalogmodels.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []catalogmodels.Product
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *memCatalog) Decrement(_ context.Context, id primitive.ObjectID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok || p.Stock < qty {
		return common.ErrOutOfStock
	}
	p.Stock -= qty
	c.products[id] = p
	return nil
}

func (c *memCatalog) Increment(_ context.Context, id primitive.ObjectID, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Stock += qty
	c.products[id] = p
	return nil
}

func (c *memCatalog) stock(id primitive.ObjectID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id].Stock
}

// memDeliveries giữ unique theo orderId như index của collection deliveries
type memDeliveries struct {
	mu      sync.Mutex
	byOrder map[primitive.ObjectID]ordermodels.Bid
}

func (d *memDeliveries) CreateForOrder(_ context.Context, o *ordermodels.Order, winner ordermodels.Bid) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byOrder[o.ID]; ok {
		return common.ErrMongoDuplicate
	}
	d.byOrder[o.ID] = winner
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

func (r *recNotifier) to(uid primitive.ObjectID, typ string) int {
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

func actorOf(role authmodels.Role) authmodels.Actor {
	return authmodels.Actor{UserID: primitive.NewObjectID(), Roles: authmodels.NewRoleSet(role), ActiveRole: role}
}

type fixture struct {
	svc        *OrderService
	orders     *memOrders
	catalog    *memCatalog
	deliveries *memDeliveries
	notifier   *recNotifier

	customer, owner, admin authmodels.Actor
	storeID                primitive.ObjectID
	burger, fries          primitive.ObjectID
}

func newFixture(t *testing.T, mode ordermodels.BidAcceptPolicy) *fixture {
	t.Helper()
	storeFee := 15.0
	f := &fixture{
		orders:     newMemOrders(),
		deliveries: &memDeliveries{byOrder: map[primitive.ObjectID]ordermodels.Bid{}},
		notifier:   &recNotifier{},
		customer:   actorOf(authmodels.RoleCustomer),
		owner:      actorOf(authmodels.RoleStore),
		admin:      actorOf(authmodels.RoleAdmin),
		storeID:    primitive.NewObjectID(),
		burger:     primitive.NewObjectID(),
		fries:      primitive.NewObjectID(),
	}
	f.catalog = &memCatalog{
		stores: map[primitive.ObjectID]catalogmodels.Store{
			f.storeID: {ID: f.storeID, OwnerID: f.owner.UserID, Name: "Grill", DeliveryFee: &storeFee, Currency: "EGP", IsActive: true},
		},
		products: map[primitive.ObjectID]catalogmodels.Product{
			f.burger: {ID: f.burger, StoreID: f.storeID, Name: "Burger", Price: 50, Stock: 10, IsActive: true},
			f.fries:  {ID: f.fries, StoreID: f.storeID, Name: "Fries", Price: 30, Stock: 1, IsActive: true},
		},
	}
	f.svc = NewOrderService(f.orders, f.catalog, f.deliveries, database.DirectRunner{}, f.notifier, OrderServiceConfig{
		Machine:            ordermodels.NewStatusMachine(false),
		Policy:             ordermodels.BidAcceptancePolicy{Mode: mode},
		DefaultDeliveryFee: 20,
		DefaultCurrency:    "EGP",
	})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) create(t *testing.T) *ordermodels.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), f.customer, CreateOrderInput{
		Items:   []ItemInput{{ProductID: f.burger, Quantity: 2}, {ProductID: f.fries, Quantity: 1}},
		Address: ordermodels.Address{Street: "26 July St", City: "Cairo"},
	})
	require.NoError(t, err)
	return o
}

func TestOrderService_Create(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	o := f.create(t)

	assert.Equal(t, ordermodels.StatusPending, o.Status)
	assert.Equal(t, 130.0, o.Subtotal)
	assert.Equal(t, 145.0, o.TotalAmount)
	assert.Equal(t, f.owner.UserID, o.StoreOwnerID)
	assert.Regexp(t, `^ORD-\d+-\d{6}$`, o.OrderNumber)
	assert.Equal(t, 8, f.catalog.stock(f.burger))
	assert.Equal(t, 0, f.catalog.stock(f.fries))
	assert.Equal(t, 1, f.notifier.to(f.owner.UserID, notification.TypeNewOrder))

	_, err := f.svc.Create(context.Background(), f.owner, CreateOrderInput{Items: []ItemInput{{ProductID: f.burger, Quantity: 1}}})
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestOrderService_CreateOutOfStockRestoresReserved(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	_, err := f.svc.Create(context.Background(), f.customer, CreateOrderInput{
		Items: []ItemInput{{ProductID: f.burger, Quantity: 3}, {ProductID: f.fries, Quantity: 2}},
	})
	assert.ErrorIs(t, err, common.ErrOutOfStock)
	assert.Equal(t, 10, f.catalog.stock(f.burger), "phần đã giữ phải được trả lại")
	assert.Equal(t, 1, f.catalog.stock(f.fries))
	assert.Empty(t, f.orders.data)
}

func TestOrderService_CreateRejectsMixedStores(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	otherStore := primitive.NewObjectID()
	tea := primitive.NewObjectID()
	f.catalog.products[tea] = catalogmodels.Product{ID: tea, StoreID: otherStore, Name: "Tea", Price: 5, Stock: 5, IsActive: true}

	_, err := f.svc.Create(context.Background(), f.customer, CreateOrderInput{
		Items: []ItemInput{{ProductID: f.burger, Quantity: 1}, {ProductID: tea, Quantity: 1}},
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), f.customer, CreateOrderInput{
		Items: []ItemInput{{ProductID: primitive.NewObjectID(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOrderService_Lifecycle(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)

	_, err := f.svc.Transition(ctx, f.customer, o.ID, ordermodels.StatusConfirmed, "")
	assert.ErrorIs(t, err, common.ErrForbidden)

	stranger := actorOf(authmodels.RoleStore)
	_, err = f.svc.Transition(ctx, stranger, o.ID, ordermodels.StatusConfirmed, "")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusReady, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	o, err = f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusConfirmed, "ok")
	require.NoError(t, err)
	assert.Equal(t, int64(2), o.Version)
	assert.True(t, o.CurrentStatusConsistent())
	assert.Equal(t, 1, f.notifier.to(f.customer.UserID, notification.TypeOrderStatus))
	assert.Equal(t, 0, f.notifier.to(f.owner.UserID, notification.TypeOrderStatus), "không báo cho chính người thao tác")

	_, err = f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusDisputed, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestOrderService_CancelRestoresStock(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)

	o, err := f.svc.Cancel(ctx, f.customer, o.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusCancelled, o.Status)
	require.NotNil(t, o.Cancellation)
	assert.Equal(t, authmodels.RoleCustomer, o.Cancellation.Role)
	assert.Equal(t, 10, f.catalog.stock(f.burger))
	assert.Equal(t, 1, f.catalog.stock(f.fries))
	assert.Equal(t, 1, f.notifier.to(f.owner.UserID, notification.TypeOrderCancelled))

	_, err = f.svc.Cancel(ctx, f.customer, o.ID, "again")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.Equal(t, 10, f.catalog.stock(f.burger), "hủy lần hai không trả kho thêm")
}

func TestOrderService_CancelWhilePreparingRestoresStock(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)

	_, err := f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusConfirmed, "")
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, 8, f.catalog.stock(f.burger))

	o, err = f.svc.Cancel(ctx, f.owner, o.ID, "hết nguyên liệu")
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusCancelled, o.Status)
	assert.Equal(t, authmodels.RoleStore, o.Cancellation.Role)
	assert.Equal(t, 10, f.catalog.stock(f.burger))
	assert.Equal(t, 1, f.catalog.stock(f.fries))
	assert.Equal(t, 1, f.notifier.to(f.customer.UserID, notification.TypeOrderCancelled))
}

func TestOrderService_BiddingScenario(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)
	driverA := actorOf(authmodels.RoleDriver)
	driverB := actorOf(authmodels.RoleDriver)

	_, err := f.svc.PlaceBid(ctx, driverA, o.ID, ordermodels.BidInput{Price: 40, EstimatedTime: "30min"})
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(ctx, driverB, o.ID, ordermodels.BidInput{Price: 35, EstimatedTime: "20min"})
	require.NoError(t, err)
	_, err = f.svc.PlaceBid(ctx, driverA, o.ID, ordermodels.BidInput{Price: 39, EstimatedTime: "30min"})
	assert.ErrorIs(t, err, common.ErrDuplicateBid)
	assert.Equal(t, 2, f.notifier.to(f.customer.UserID, notification.TypeBidPlaced))

	o, err = f.svc.AcceptBid(ctx, driverA, o.ID, driverA.UserID)
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusOutForDelivery, o.Status)
	assert.Equal(t, driverA.UserID, o.DeliveryAssignment.AssignedDriver)
	assert.Equal(t, authmodels.RoleDriver, o.DeliveryAssignment.AssignedBy)
	require.NotNil(t, o.EstimatedDeliveryTime)
	assert.Equal(t, testNow.Add(30*time.Minute).UnixMilli(), *o.EstimatedDeliveryTime)

	_, err = f.svc.AcceptBid(ctx, driverB, o.ID, driverB.UserID)
	assert.ErrorIs(t, err, common.ErrNoBidFound)
	_, err = f.svc.AcceptBid(ctx, driverA, o.ID, driverA.UserID)
	assert.ErrorIs(t, err, common.ErrNoBidFound)
	_, err = f.svc.PlaceBid(ctx, actorOf(authmodels.RoleDriver), o.ID, ordermodels.BidInput{Price: 10, EstimatedTime: "10min"})
	assert.ErrorIs(t, err, common.ErrNotBiddable)

	assert.Len(t, f.deliveries.byOrder, 1)
	assert.Equal(t, 40.0, f.deliveries.byOrder[o.ID].Price)
	assert.Equal(t, 1, f.notifier.to(driverB.UserID, notification.TypeBidRejected))
	assert.Equal(t, 1, f.notifier.to(f.customer.UserID, notification.TypeDriverAssigned))
	assert.Equal(t, 0, f.notifier.to(driverA.UserID, notification.TypeBidAccepted), "tài xế tự chấp nhận thì không tự báo")

	// tài xế được phân công xem được đơn, tài xế khác thì không
	_, err = f.svc.Get(ctx, driverA, o.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, actorOf(authmodels.RoleDriver), o.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestOrderService_CustomerSelectPolicy(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyCustomerSelect)
	ctx := context.Background()
	o := f.create(t)
	driver := actorOf(authmodels.RoleDriver)

	_, err := f.svc.PlaceBid(ctx, driver, o.ID, ordermodels.BidInput{Price: 25, EstimatedTime: "1h"})
	require.NoError(t, err)

	_, err = f.svc.AcceptBid(ctx, driver, o.ID, driver.UserID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	o, err = f.svc.AcceptBid(ctx, f.customer, o.ID, driver.UserID)
	require.NoError(t, err)
	assert.Equal(t, authmodels.RoleCustomer, o.DeliveryAssignment.AssignedBy)
	assert.Equal(t, 1, f.notifier.to(driver.UserID, notification.TypeBidAccepted))
}

func TestOrderService_AcceptRollsBackWhenDeliveryExists(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)
	driver := actorOf(authmodels.RoleDriver)
	_, err := f.svc.PlaceBid(ctx, driver, o.ID, ordermodels.BidInput{Price: 25, EstimatedTime: "45"})
	require.NoError(t, err)

	f.deliveries.byOrder[o.ID] = ordermodels.Bid{}
	_, err = f.svc.AcceptBid(ctx, driver, o.ID, driver.UserID)
	assert.ErrorIs(t, err, common.ErrMongoDuplicate)
	assert.Zero(t, f.notifier.to(f.customer.UserID, notification.TypeDriverAssigned))

	stored, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusPending, stored.Status, "đơn được khôi phục khi không tạo được bản ghi giao hàng")
	assert.True(t, stored.IsBiddable())
	assert.Equal(t, ordermodels.BidPending, stored.Bids[0].Status)
}

func TestOrderService_MutateRetriesVersionConflict(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)

	f.orders.conflicts = 2
	o, err := f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusConfirmed, o.Status)
	assert.Len(t, o.StatusHistory, 2, "mỗi lần thử đọc lại đơn, không nhân đôi lịch sử")

	f.orders.conflicts = maxMutateAttempts
	_, err = f.svc.Transition(ctx, f.owner, o.ID, ordermodels.StatusPreparing, "")
	assert.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestOrderService_ConcurrentDuplicateBid(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	o := f.create(t)
	driver := actorOf(authmodels.RoleDriver)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceBid(context.Background(), driver, o.ID, ordermodels.BidInput{Price: 20, EstimatedTime: "15min"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, common.ErrDuplicateBid)
		}
	}
	assert.Equal(t, 1, ok)
	stored, _ := f.orders.Get(context.Background(), o.ID)
	assert.Len(t, stored.Bids, 1)
}

func TestOrderService_ConcurrentAcceptCreatesOneDelivery(t *testing.T) {
	for round := 0; round < 50; round++ {
		f := newFixture(t, ordermodels.PolicyDriverSelf)
		ctx := context.Background()
		o := f.create(t)
		driverA := actorOf(authmodels.RoleDriver)
		driverB := actorOf(authmodels.RoleDriver)
		for _, d := range []authmodels.Actor{driverA, driverB} {
			_, err := f.svc.PlaceBid(ctx, d, o.ID, ordermodels.BidInput{Price: 30, EstimatedTime: "20min"})
			require.NoError(t, err)
		}

		drivers := []authmodels.Actor{driverA, driverA, driverB, driverA}
		errs := make([]error, len(drivers))
		var wg sync.WaitGroup
		for i, d := range drivers {
			wg.Add(1)
			go func(i int, d authmodels.Actor) {
				defer wg.Done()
				_, errs[i] = f.svc.AcceptBid(ctx, d, o.ID, d.UserID)
			}(i, d)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.True(t, errors.Is(err, common.ErrNoBidFound) || errors.Is(err, common.ErrNotBiddable) || errors.Is(err, common.ErrVersionConflict), err.Error())
		}
		require.Equal(t, 1, ok, "round %d", round)
		assert.Len(t, f.deliveries.byOrder, 1)

		stored, err := f.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, ordermodels.StatusOutForDelivery, stored.Status)
		assert.Equal(t, f.deliveries.byOrder[o.ID].DriverID, stored.DeliveryAssignment.AssignedDriver)
	}
}

func TestOrderService_ListScopes(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	f.catalog.products[f.fries] = catalogmodels.Product{ID: f.fries, StoreID: f.storeID, Name: "Fries", Price: 30, Stock: 5, IsActive: true}
	first := f.create(t)
	f.create(t)

	res, err := f.svc.List(ctx, f.customer, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = f.svc.List(ctx, actorOf(authmodels.RoleCustomer), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)

	res, err = f.svc.List(ctx, f.owner, ordermodels.StatusPending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	driver := actorOf(authmodels.RoleDriver)
	_, err = f.svc.PlaceBid(ctx, driver, first.ID, ordermodels.BidInput{Price: 20, EstimatedTime: "15min"})
	require.NoError(t, err)
	_, err = f.svc.AcceptBid(ctx, driver, first.ID, driver.UserID)
	require.NoError(t, err)

	res, err = f.svc.List(ctx, actorOf(authmodels.RoleDriver), "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total, "tài xế khác chỉ thấy đơn còn nhận đặt giá")

	res, err = f.svc.List(ctx, driver, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	_, err = f.svc.List(ctx, f.admin, "shipped", 1, 20)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestOrderService_RateAndSync(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)

	_, err := f.svc.Rate(ctx, f.customer, o.ID, 5, "great")
	assert.ErrorIs(t, err, common.ErrInvalidState)

	paidAt := testNow.UnixMilli()
	o, err = f.svc.SyncPayment(ctx, o.ID, ordermodels.PaymentSummary{Method: "cash", Status: ordermodels.PaymentPaid, Amount: 145, PaymentID: "PAY-1-1", PaidAt: &paidAt})
	require.NoError(t, err)
	assert.Equal(t, ordermodels.PaymentPaid, o.Payment.Status)

	_, err = f.svc.SyncPayment(ctx, o.ID, ordermodels.PaymentSummary{Method: "wallet", Status: ordermodels.PaymentPaid, Amount: 145, PaymentID: "PAY-1-2"})
	assert.ErrorIs(t, err, common.ErrAlreadyPaid)

	driverClock := testNow.Add(-time.Hour).UnixMilli()
	require.NoError(t, f.svc.RecordDriverLocation(ctx, o.ID, ordermodels.GeoPoint{Lat: 30.04, Lng: 31.23, Timestamp: driverClock}))
	stored, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, o.Version, stored.Version, "vị trí không tăng version")
	assert.Equal(t, 30.04, stored.DriverLocation.Lat)
	assert.Equal(t, testNow.UnixMilli(), stored.UpdatedAt, "updatedAt theo giờ server")
}

func TestOrderService_LocationDoesNotBreakTransition(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)
	ctx := context.Background()
	o := f.create(t)
	driver := actorOf(authmodels.RoleDriver)
	_, err := f.svc.PlaceBid(ctx, driver, o.ID, ordermodels.BidInput{Price: 20, EstimatedTime: "15min"})
	require.NoError(t, err)
	o, err = f.svc.AcceptBid(ctx, driver, o.ID, driver.UserID)
	require.NoError(t, err)

	for i := 0; i < 3*maxMutateAttempts; i++ {
		require.NoError(t, f.svc.RecordDriverLocation(ctx, o.ID, ordermodels.GeoPoint{Lat: 30, Lng: 31, Timestamp: int64(i)}))
	}
	o, err = f.svc.Transition(ctx, f.customer, o.ID, ordermodels.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, ordermodels.StatusDelivered, o.Status)
}

func TestOrderService_DeliveryFeeFromStore(t *testing.T) {
	f := newFixture(t, ordermodels.PolicyDriverSelf)

	free := 0.0
	st := f.catalog.stores[f.storeID]
	st.DeliveryFee = &free
	f.catalog.stores[f.storeID] = st
	o := f.create(t)
	assert.Equal(t, 0.0, o.DeliveryFee, "cửa hàng miễn phí giao thì không lấy phí mặc định")
	assert.Equal(t, 130.0, o.TotalAmount)

	f.catalog.products[f.fries] = catalogmodels.Product{ID: f.fries, StoreID: f.storeID, Name: "Fries", Price: 30, Stock: 5, IsActive: true}
	st.DeliveryFee = nil
	f.catalog.stores[f.storeID] = st
	o = f.create(t)
	assert.Equal(t, 20.0, o.DeliveryFee)
	assert.Equal(t, 150.0, o.TotalAmount)
}
