package models

import (
	"testing"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func actorOf(role authmodels.Role) authmodels.Actor {
	return authmodels.Actor{UserID: primitive.NewObjectID(), Roles: authmodels.NewRoleSet(role), ActiveRole: role}
}

type fixture struct {
	customer authmodels.Actor
	store    authmodels.Actor
	admin    authmodels.Actor
	order    *Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		customer: actorOf(authmodels.RoleCustomer),
		store:    actorOf(authmodels.RoleStore),
		admin:    actorOf(authmodels.RoleAdmin),
	}
	o, err := NewOrder(NewOrderParams{
		OrderNumber:  "ORD-1-000001",
		Customer:     f.customer,
		StoreID:      primitive.NewObjectID(),
		StoreOwnerID: f.store.UserID,
		Items: []OrderItem{
			{ProductID: primitive.NewObjectID(), Name: "Bánh mì", Quantity: 2, Price: 50},
			{ProductID: primitive.NewObjectID(), Name: "Trà", Quantity: 1, Price: 30},
		},
		DeliveryFee: 15,
		Currency:    "EGP",
	}, testNow)
	require.NoError(t, err)
	f.order = o
	return f
}

func TestNewOrder_Totals(t *testing.T) {
	f := newFixture(t)
	o := f.order

	assert.Equal(t, 130.0, o.Subtotal)
	assert.Equal(t, 145.0, o.TotalAmount)
	assert.Equal(t, 100.0, o.Items[0].Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.Payment.Status)
	require.Len(t, o.StatusHistory, 1)
	assert.True(t, o.CurrentStatusConsistent())
}

func TestNewOrder_Invalid(t *testing.T) {
	c := actorOf(authmodels.RoleCustomer)
	_, err := NewOrder(NewOrderParams{Customer: c}, testNow)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewOrder(NewOrderParams{Customer: c, Items: []OrderItem{{Quantity: 0, Price: 10}}}, testNow)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestStatusMachine_Table(t *testing.T) {
	sm := NewStatusMachine(false)
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:        {StatusConfirmed, StatusCancelled},
		StatusConfirmed:      {StatusPreparing, StatusCancelled},
		StatusPreparing:      {StatusReady, StatusCancelled},
		StatusReady:          {StatusOutForDelivery},
		StatusOutForDelivery: {StatusDelivered},
		StatusDelivered:      {StatusCompleted},
	}
	all := []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusOutForDelivery,
		StatusDelivered, StatusCompleted, StatusCancelled, StatusRefunded, StatusDisputed, StatusResolved}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, sm.CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	for _, s := range []OrderStatus{StatusCompleted, StatusCancelled, StatusRefunded} {
		assert.True(t, sm.IsTerminal(s), s)
	}
	assert.False(t, sm.Known(StatusDisputed))
}

func TestStatusMachine_Dispute(t *testing.T) {
	sm := NewStatusMachine(true)
	assert.True(t, sm.CanTransition(StatusDelivered, StatusDisputed))
	assert.True(t, sm.CanTransition(StatusDisputed, StatusResolved))
	assert.True(t, sm.CanTransition(StatusResolved, StatusRefunded))
	assert.True(t, sm.CanTransition(StatusDelivered, StatusCompleted))
	assert.False(t, sm.IsTerminal(StatusDisputed))
}

func TestTransition_Roles(t *testing.T) {
	sm := NewStatusMachine(false)
	f := newFixture(t)
	o := f.order

	err := o.Transition(sm, f.customer, StatusConfirmed, "", testNow)
	assert.ErrorIs(t, err, common.ErrForbidden)

	other := actorOf(authmodels.RoleStore)
	err = o.Transition(sm, other, StatusConfirmed, "", testNow)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, o.Transition(sm, f.store, StatusConfirmed, "", testNow))
	require.NoError(t, o.Transition(sm, f.store, StatusPreparing, "", testNow))

	err = o.Transition(sm, f.store, StatusDelivered, "", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	require.NoError(t, o.Transition(sm, f.store, StatusReady, "", testNow))
	require.NoError(t, o.Transition(sm, f.admin, StatusOutForDelivery, "", testNow))

	err = o.Transition(sm, f.store, StatusDelivered, "", testNow)
	assert.ErrorIs(t, err, common.ErrForbidden)
	require.NoError(t, o.Transition(sm, f.customer, StatusDelivered, "", testNow))
	require.NoError(t, o.Transition(sm, f.customer, StatusCompleted, "", testNow))

	assert.Len(t, o.StatusHistory, 7)
	assert.True(t, o.CurrentStatusConsistent())
	assert.Equal(t, f.customer.UserID, o.StatusHistory[6].ChangedBy)
}

func TestCancel(t *testing.T) {
	sm := NewStatusMachine(false)
	f := newFixture(t)
	o := f.order

	require.NoError(t, o.Transition(sm, f.store, StatusConfirmed, "", testNow))
	require.NoError(t, o.Transition(sm, f.store, StatusPreparing, "", testNow))

	require.NoError(t, o.Cancel(sm, f.customer, "đổi ý", testNow))
	assert.Equal(t, StatusCancelled, o.Status)
	require.NotNil(t, o.Cancellation)
	assert.Equal(t, "đổi ý", o.Cancellation.Reason)
	assert.Equal(t, authmodels.RoleCustomer, o.Cancellation.Role)

	err := o.Cancel(sm, f.customer, "lần nữa", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.True(t, o.CurrentStatusConsistent())
}

func TestCancel_NotAfterDispatch(t *testing.T) {
	sm := NewStatusMachine(false)
	f := newFixture(t)
	o := f.order
	o.Status = StatusOutForDelivery

	err := o.Transition(sm, f.admin, StatusCancelled, "", testNow)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	driver := actorOf(authmodels.RoleDriver)
	o.Status = StatusPending
	err = o.Cancel(sm, driver, "", testNow)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestBidding_Scenario(t *testing.T) {
	f := newFixture(t)
	o := f.order
	a := actorOf(authmodels.RoleDriver)
	b := actorOf(authmodels.RoleDriver)
	policy := BidAcceptancePolicy{Mode: PolicyDriverSelf}

	require.NoError(t, o.PlaceBid(a, BidInput{Price: 40, EstimatedTime: "30min"}, testNow))
	require.NoError(t, o.PlaceBid(b, BidInput{Price: 35, EstimatedTime: "20min"}, testNow))
	assert.ErrorIs(t, o.PlaceBid(a, BidInput{Price: 30, EstimatedTime: "10min"}, testNow), common.ErrDuplicateBid)

	res, err := o.AcceptBid(a, policy, a.UserID, testNow)
	require.NoError(t, err)
	assert.Equal(t, a.UserID, res.Winner.DriverID)
	assert.Equal(t, []primitive.ObjectID{b.UserID}, res.Rejected)
	assert.Equal(t, StatusOutForDelivery, o.Status)
	require.NotNil(t, o.DeliveryAssignment)
	assert.Equal(t, a.UserID, o.DeliveryAssignment.AssignedDriver)
	assert.Equal(t, authmodels.RoleDriver, o.DeliveryAssignment.AssignedBy)
	require.NotNil(t, o.EstimatedDeliveryTime)
	assert.Equal(t, testNow.Add(30*time.Minute).UnixMilli(), *o.EstimatedDeliveryTime)

	_, err = o.AcceptBid(b, policy, b.UserID, testNow)
	assert.ErrorIs(t, err, common.ErrNoBidFound)

	_, err = o.AcceptBid(a, policy, a.UserID, testNow)
	assert.ErrorIs(t, err, common.ErrNoBidFound)

	c := actorOf(authmodels.RoleDriver)
	assert.ErrorIs(t, o.PlaceBid(c, BidInput{Price: 20, EstimatedTime: "10min"}, testNow), common.ErrNotBiddable)
	assert.True(t, o.CurrentStatusConsistent())
}

func TestBidding_Validation(t *testing.T) {
	f := newFixture(t)
	o := f.order
	d := actorOf(authmodels.RoleDriver)

	assert.ErrorIs(t, o.PlaceBid(d, BidInput{Price: 0, EstimatedTime: "30min"}, testNow), common.ErrInvalidInput)
	assert.ErrorIs(t, o.PlaceBid(d, BidInput{Price: 10, EstimatedTime: "soon"}, testNow), common.ErrInvalidInput)
	assert.ErrorIs(t, o.PlaceBid(f.customer, BidInput{Price: 10, EstimatedTime: "30min"}, testNow), common.ErrForbidden)

	assert.ErrorIs(t, o.UpdateBid(d, BidInput{Price: 10, EstimatedTime: "30min"}, testNow), common.ErrNoBidFound)
	require.NoError(t, o.PlaceBid(d, BidInput{Price: 10, EstimatedTime: "30min"}, testNow))
	require.NoError(t, o.UpdateBid(d, BidInput{Price: 12.5, EstimatedTime: "25min", Note: "gần"}, testNow))
	require.Len(t, o.Bids, 1)
	assert.Equal(t, 12.5, o.Bids[0].Price)
	assert.Equal(t, "25min", o.Bids[0].EstimatedTime)

	require.NoError(t, o.WithdrawBid(d, testNow))
	assert.Empty(t, o.Bids)

	o.Status = StatusPreparing
	assert.ErrorIs(t, o.PlaceBid(d, BidInput{Price: 10, EstimatedTime: "30min"}, testNow), common.ErrNotBiddable)
}

func TestBidding_UpdateAndWithdrawCheckBiddableFirst(t *testing.T) {
	f := newFixture(t)
	o := f.order
	withBid := actorOf(authmodels.RoleDriver)
	noBid := actorOf(authmodels.RoleDriver)
	require.NoError(t, o.PlaceBid(withBid, BidInput{Price: 10, EstimatedTime: "30min"}, testNow))

	o.Status = StatusPreparing
	for _, d := range []authmodels.Actor{withBid, noBid} {
		assert.ErrorIs(t, o.UpdateBid(d, BidInput{Price: 11, EstimatedTime: "30min"}, testNow), common.ErrNotBiddable)
		assert.ErrorIs(t, o.WithdrawBid(d, testNow), common.ErrNotBiddable)
	}
	assert.Len(t, o.Bids, 1)
}

func TestAcceptancePolicy(t *testing.T) {
	f := newFixture(t)
	o := f.order
	d := actorOf(authmodels.RoleDriver)
	require.NoError(t, o.PlaceBid(d, BidInput{Price: 40, EstimatedTime: "30min"}, testNow))

	self := BidAcceptancePolicy{Mode: PolicyDriverSelf}
	_, err := self.Authorize(f.customer, o, d.UserID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	sel := BidAcceptancePolicy{Mode: PolicyCustomerSelect}
	_, err = sel.Authorize(d, o, d.UserID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = sel.Authorize(actorOf(authmodels.RoleCustomer), o, d.UserID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	res, err := o.AcceptBid(f.customer, sel, d.UserID, testNow)
	require.NoError(t, err)
	assert.Equal(t, d.UserID, res.Winner.DriverID)
	assert.Equal(t, authmodels.RoleCustomer, o.DeliveryAssignment.AssignedBy)

	_, err = NewBidAcceptancePolicy("auction")
	assert.Error(t, err)
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	o := f.order

	assert.ErrorIs(t, o.Rate(f.customer, 5, "", testNow), common.ErrInvalidState)
	o.Status = StatusDelivered
	assert.ErrorIs(t, o.Rate(f.store, 5, "", testNow), common.ErrForbidden)
	assert.ErrorIs(t, o.Rate(f.customer, 6, "", testNow), common.ErrInvalidInput)
	require.NoError(t, o.Rate(f.customer, 4, "ngon", testNow))
	assert.ErrorIs(t, o.Rate(f.customer, 5, "", testNow), common.ErrAlreadyRated)
}

func TestCanView(t *testing.T) {
	f := newFixture(t)
	o := f.order
	d := actorOf(authmodels.RoleDriver)

	assert.True(t, o.CanView(f.customer))
	assert.True(t, o.CanView(f.store))
	assert.True(t, o.CanView(f.admin))
	assert.True(t, o.CanView(d))
	assert.False(t, o.CanView(actorOf(authmodels.RoleCustomer)))

	o.Status = StatusPreparing
	assert.False(t, o.CanView(d))
}
