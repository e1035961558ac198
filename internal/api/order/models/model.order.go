package models

import (
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order là aggregate đơn hàng: dòng hàng, lịch sử trạng thái, giá đặt của tài xế và phân công giao hàng.
// Mọi thay đổi đi qua ReplaceWithVersion (CAS theo Version).
type Order struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber  string             `json:"orderNumber" bson:"orderNumber" index:"unique"`
	CustomerID   primitive.ObjectID `json:"customerId" bson:"customerId" index:"single:1"`
	StoreID      primitive.ObjectID `json:"storeId" bson:"storeId" index:"single:1"`
	StoreOwnerID primitive.ObjectID `json:"storeOwnerId" bson:"storeOwnerId" index:"single:1"`

	Items       []OrderItem `json:"items" bson:"items"`
	Subtotal    float64     `json:"subtotal" bson:"subtotal"`
	DeliveryFee float64     `json:"deliveryFee" bson:"deliveryFee"`
	TotalAmount float64     `json:"totalAmount" bson:"totalAmount"`
	Currency    string      `json:"currency" bson:"currency"`

	Status        OrderStatus          `json:"status" bson:"status" index:"single:1;compound:status_eta_late"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory" bson:"statusHistory"`

	Bids                  []Bid               `json:"bids" bson:"bids"`
	DeliveryAssignment    *DeliveryAssignment `json:"deliveryAssignment,omitempty" bson:"deliveryAssignment,omitempty"`
	EstimatedDeliveryTime *int64              `json:"estimatedDeliveryTime,omitempty" bson:"estimatedDeliveryTime,omitempty" index:"compound:status_eta_late"`
	NotifiedLate          bool                `json:"notifiedLate" bson:"notifiedLate" index:"compound:status_eta_late"`
	DriverLocation        *GeoPoint           `json:"driverLocation,omitempty" bson:"driverLocation,omitempty"`

	DeliveryAddress Address         `json:"deliveryAddress" bson:"deliveryAddress"`
	Notes           string          `json:"notes,omitempty" bson:"notes,omitempty"`
	Payment         PaymentSummary  `json:"payment" bson:"payment"`
	Cancellation    *Cancellation   `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	Rating          *CustomerRating `json:"rating,omitempty" bson:"rating,omitempty"`

	Version   int64 `json:"version" bson:"version"`
	CreatedAt int64 `json:"createdAt" bson:"createdAt" index:"single:-1"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// OrderItem là một dòng hàng, giá được chụp lại tại thời điểm tạo đơn
type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	Price     float64            `json:"price" bson:"price"`
	Total     float64            `json:"total" bson:"total"`
}

// StatusHistoryEntry là một bước trong lịch sử trạng thái (chỉ thêm, không sửa)
type StatusHistoryEntry struct {
	Status    OrderStatus        `json:"status" bson:"status"`
	ChangedBy primitive.ObjectID `json:"changedBy" bson:"changedBy"`
	Role      authmodels.Role    `json:"role" bson:"role"`
	Note      string             `json:"note,omitempty" bson:"note,omitempty"`
	Timestamp int64              `json:"timestamp" bson:"timestamp"`
}

// Address là địa chỉ giao hàng
type Address struct {
	Street string  `json:"street" bson:"street"`
	City   string  `json:"city" bson:"city"`
	Lat    float64 `json:"lat" bson:"lat"`
	Lng    float64 `json:"lng" bson:"lng"`
	Note   string  `json:"note,omitempty" bson:"note,omitempty"`
}

// GeoPoint là vị trí cuối cùng đã biết của tài xế
type GeoPoint struct {
	Lat       float64 `json:"lat" bson:"lat"`
	Lng       float64 `json:"lng" bson:"lng"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// PaymentStatus là trạng thái thanh toán tóm tắt trên đơn
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// PaymentSummary là bản tóm tắt lần thanh toán gần nhất, do payment service đồng bộ
type PaymentSummary struct {
	Method        string        `json:"method,omitempty" bson:"method,omitempty"`
	Status        PaymentStatus `json:"status" bson:"status"`
	Amount        float64       `json:"amount" bson:"amount"`
	PaymentID     string        `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	TransactionID string        `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	PaidAt        *int64        `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// Cancellation ghi lại lý do và người hủy đơn
type Cancellation struct {
	Reason      string             `json:"reason" bson:"reason"`
	CancelledBy primitive.ObjectID `json:"cancelledBy" bson:"cancelledBy"`
	Role        authmodels.Role    `json:"role" bson:"role"`
	CancelledAt int64              `json:"cancelledAt" bson:"cancelledAt"`
}

// CustomerRating là đánh giá của khách sau khi nhận hàng
type CustomerRating struct {
	Rating  int    `json:"rating" bson:"rating"`
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`
	RatedAt int64  `json:"ratedAt" bson:"ratedAt"`
}

// NewOrderParams là dữ liệu đã được kiểm tra để dựng đơn mới
type NewOrderParams struct {
	OrderNumber  string
	Customer     authmodels.Actor
	StoreID      primitive.ObjectID
	StoreOwnerID primitive.ObjectID
	Items        []OrderItem
	DeliveryFee  float64
	Currency     string
	Address      Address
	Notes        string
}

// CalculateTotals tính total từng dòng, subtotal và tổng tiền (subtotal + phí giao)
func CalculateTotals(items []OrderItem, deliveryFee float64) (lines []OrderItem, subtotal, total float64) {
	lines = make([]OrderItem, len(items))
	lineTotals := make([]float64, 0, len(items))
	for i, it := range items {
		it.Total = utility.MulMoney(it.Price, it.Quantity)
		lines[i] = it
		lineTotals = append(lineTotals, it.Total)
	}
	subtotal = utility.AddMoney(lineTotals...)
	total = utility.AddMoney(subtotal, deliveryFee)
	return lines, subtotal, total
}

// NewOrder dựng đơn ở trạng thái pending; totalAmount cố định từ đây
func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if len(p.Items) == 0 || p.DeliveryFee < 0 {
		return nil, common.ErrInvalidInput
	}
	for _, it := range p.Items {
		if it.Quantity <= 0 || it.Price < 0 {
			return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"productId": it.ProductID.Hex()})
		}
	}

	lines, subtotal, total := CalculateTotals(p.Items, p.DeliveryFee)
	ts := now.UnixMilli()
	o := &Order{
		ID:           primitive.NewObjectID(),
		OrderNumber:  p.OrderNumber,
		CustomerID:   p.Customer.UserID,
		StoreID:      p.StoreID,
		StoreOwnerID: p.StoreOwnerID,
		Items:        lines,
		Subtotal:     subtotal,
		DeliveryFee:  p.DeliveryFee,
		TotalAmount:  total,
		Currency:     p.Currency,
		Status:       StatusPending,
		Bids:         []Bid{},
		Notes:        p.Notes,
		Payment:      PaymentSummary{Status: PaymentPending},
		Version:      1,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	o.DeliveryAddress = p.Address
	o.StatusHistory = []StatusHistoryEntry{{
		Status:    StatusPending,
		ChangedBy: p.Customer.UserID,
		Role:      p.Customer.ActiveRole,
		Timestamp: ts,
	}}
	return o, nil
}

func (o *Order) IsCustomer(uid primitive.ObjectID) bool {
	return o.CustomerID == uid
}

func (o *Order) IsStoreOwner(uid primitive.ObjectID) bool {
	return o.StoreOwnerID == uid
}

func (o *Order) IsAssignedDriver(uid primitive.ObjectID) bool {
	return o.DeliveryAssignment != nil && o.DeliveryAssignment.AssignedDriver == uid
}

// CanView: admin, khách, chủ cửa hàng, tài xế được phân công, hoặc tài xế khi đơn còn nhận đặt giá
func (o *Order) CanView(actor authmodels.Actor) bool {
	switch actor.ActiveRole {
	case authmodels.RoleAdmin:
		return true
	case authmodels.RoleCustomer:
		return o.IsCustomer(actor.UserID)
	case authmodels.RoleStore:
		return o.IsStoreOwner(actor.UserID)
	case authmodels.RoleDriver:
		return o.IsAssignedDriver(actor.UserID) || o.IsBiddable() || o.findBid(actor.UserID) >= 0
	}
	return false
}

// CurrentStatusConsistent kiểm tra entry cuối của lịch sử trùng với trạng thái hiện tại
func (o *Order) CurrentStatusConsistent() bool {
	n := len(o.StatusHistory)
	return n > 0 && o.StatusHistory[n-1].Status == o.Status
}

func (o *Order) applyStatus(to OrderStatus, actor authmodels.Actor, note string, now time.Time) {
	ts := now.UnixMilli()
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:    to,
		ChangedBy: actor.UserID,
		Role:      actor.ActiveRole,
		Note:      note,
		Timestamp: ts,
	})
	o.UpdatedAt = ts
}

// Transition chuyển trạng thái theo bảng chuyển và quyền của actor
func (o *Order) Transition(sm *StatusMachine, actor authmodels.Actor, to OrderStatus, note string, now time.Time) error {
	if to == StatusCancelled {
		return o.Cancel(sm, actor, note, now)
	}
	if !sm.CanTransition(o.Status, to) {
		return common.WithDetails(common.ErrInvalidTransition, map[string]string{"from": string(o.Status), "to": string(to)})
	}
	if err := AuthorizeTransition(actor, o, to); err != nil {
		return err
	}
	o.applyStatus(to, actor, note, now)
	return nil
}

// Cancel hủy đơn; đơn đã ở trạng thái cuối hoặc đã qua bước chuẩn bị thì không hủy được
func (o *Order) Cancel(sm *StatusMachine, actor authmodels.Actor, reason string, now time.Time) error {
	if sm.IsTerminal(o.Status) || !sm.CanTransition(o.Status, StatusCancelled) {
		return common.WithDetails(common.ErrInvalidTransition, map[string]string{"from": string(o.Status), "to": string(StatusCancelled)})
	}
	if err := AuthorizeTransition(actor, o, StatusCancelled); err != nil {
		return err
	}
	o.Cancellation = &Cancellation{
		Reason:      reason,
		CancelledBy: actor.UserID,
		Role:        actor.ActiveRole,
		CancelledAt: now.UnixMilli(),
	}
	o.applyStatus(StatusCancelled, actor, reason, now)
	return nil
}

// Rate lưu đánh giá của khách, chỉ một lần và chỉ sau khi đã nhận hàng
func (o *Order) Rate(actor authmodels.Actor, rating int, comment string, now time.Time) error {
	if !actor.Is(authmodels.RoleCustomer) || !o.IsCustomer(actor.UserID) {
		return common.ErrForbidden
	}
	if o.Status != StatusDelivered && o.Status != StatusCompleted {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(o.Status)})
	}
	if o.Rating != nil {
		return common.ErrAlreadyRated
	}
	if rating < 1 || rating > 5 {
		return common.ErrInvalidInput
	}
	o.Rating = &CustomerRating{Rating: rating, Comment: comment, RatedAt: now.UnixMilli()}
	o.UpdatedAt = now.UnixMilli()
	return nil
}

// ApplyPayment ghi tóm tắt thanh toán; đơn đã được một lần thanh toán khác trả xong → ErrAlreadyPaid
func (o *Order) ApplyPayment(summary PaymentSummary, now time.Time) error {
	settled := o.Payment.Status == PaymentPaid || o.Payment.Status == PaymentRefunded
	if settled && o.Payment.PaymentID != "" && o.Payment.PaymentID != summary.PaymentID {
		return common.WithDetails(common.ErrAlreadyPaid, map[string]string{"paymentId": o.Payment.PaymentID})
	}
	o.Payment = summary
	o.UpdatedAt = now.UnixMilli()
	return nil
}

// Clone trả về bản sao sâu của đơn
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.StatusHistory = append([]StatusHistoryEntry(nil), o.StatusHistory...)
	c.Bids = append([]Bid(nil), o.Bids...)
	if o.DeliveryAssignment != nil {
		v := *o.DeliveryAssignment
		c.DeliveryAssignment = &v
	}
	if o.EstimatedDeliveryTime != nil {
		v := *o.EstimatedDeliveryTime
		c.EstimatedDeliveryTime = &v
	}
	if o.DriverLocation != nil {
		v := *o.DriverLocation
		c.DriverLocation = &v
	}
	if o.Payment.PaidAt != nil {
		v := *o.Payment.PaidAt
		c.Payment.PaidAt = &v
	}
	if o.Cancellation != nil {
		v := *o.Cancellation
		c.Cancellation = &v
	}
	if o.Rating != nil {
		v := *o.Rating
		c.Rating = &v
	}
	return &c
}
