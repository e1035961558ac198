package models

import (
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/utility"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BidStatus là trạng thái của một giá đặt
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Bid là giá giao hàng tài xế đề xuất cho đơn
type Bid struct {
	DriverID      primitive.ObjectID `json:"driverId" bson:"driverId"`
	Price         float64            `json:"price" bson:"price"`
	EstimatedTime string             `json:"estimatedTime" bson:"estimatedTime"` // ví dụ "30min"
	Note          string             `json:"note,omitempty" bson:"note,omitempty"`
	Status        BidStatus          `json:"status" bson:"status"`
	CreatedAt     int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt     int64              `json:"updatedAt" bson:"updatedAt"`
}

// DeliveryAssignment ghi lại tài xế được giao đơn
type DeliveryAssignment struct {
	AssignedDriver primitive.ObjectID `json:"assignedDriver" bson:"assignedDriver"`
	AssignedAt     int64              `json:"assignedAt" bson:"assignedAt"`
	AssignedBy     authmodels.Role    `json:"assignedBy" bson:"assignedBy"`
}

// BidInput là nội dung giá đặt mới hoặc sửa đổi
type BidInput struct {
	Price         float64
	EstimatedTime string
	Note          string
}

// BidAcceptance là kết quả chấp nhận giá: giá thắng và các tài xế bị loại
type BidAcceptance struct {
	Winner   Bid
	Rejected []primitive.ObjectID
}

// IsBiddable: đơn còn nhận giá khi pending/confirmed và chưa phân công tài xế
func (o *Order) IsBiddable() bool {
	return (o.Status == StatusPending || o.Status == StatusConfirmed) && o.DeliveryAssignment == nil
}

func (o *Order) findBid(driverID primitive.ObjectID) int {
	for i, b := range o.Bids {
		if b.DriverID == driverID {
			return i
		}
	}
	return -1
}

func (o *Order) findPendingBid(driverID primitive.ObjectID) int {
	i := o.findBid(driverID)
	if i >= 0 && o.Bids[i].Status == BidPending {
		return i
	}
	return -1
}

// BidOf trả về giá đặt của tài xế (nếu có)
func (o *Order) BidOf(driverID primitive.ObjectID) (Bid, bool) {
	if i := o.findBid(driverID); i >= 0 {
		return o.Bids[i], true
	}
	return Bid{}, false
}

func validateBidInput(in BidInput) error {
	if in.Price <= 0 {
		return common.WithDetails(common.ErrInvalidInput, map[string]string{"price": "must be > 0"})
	}
	if _, err := utility.ParseETA(in.EstimatedTime); err != nil {
		return common.WithDetails(common.ErrInvalidInput, map[string]string{"estimatedTime": in.EstimatedTime})
	}
	return nil
}

// PlaceBid thêm giá đặt của tài xế; mỗi tài xế chỉ một giá cho mỗi đơn
func (o *Order) PlaceBid(actor authmodels.Actor, in BidInput, now time.Time) error {
	if !actor.Is(authmodels.RoleDriver) {
		return common.ErrForbidden
	}
	if !o.IsBiddable() {
		return common.WithDetails(common.ErrNotBiddable, map[string]string{"status": string(o.Status)})
	}
	if o.findBid(actor.UserID) >= 0 {
		return common.ErrDuplicateBid
	}
	if err := validateBidInput(in); err != nil {
		return err
	}

	ts := now.UnixMilli()
	o.Bids = append(o.Bids, Bid{
		DriverID:      actor.UserID,
		Price:         utility.Float(utility.Dec(in.Price)),
		EstimatedTime: in.EstimatedTime,
		Note:          in.Note,
		Status:        BidPending,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	})
	o.UpdatedAt = ts
	return nil
}

// UpdateBid sửa giá đặt đang chờ của tài xế tại chỗ
func (o *Order) UpdateBid(actor authmodels.Actor, in BidInput, now time.Time) error {
	if !actor.Is(authmodels.RoleDriver) {
		return common.ErrForbidden
	}
	if !o.IsBiddable() {
		return common.WithDetails(common.ErrNotBiddable, map[string]string{"status": string(o.Status)})
	}
	i := o.findPendingBid(actor.UserID)
	if i < 0 {
		return common.ErrNoBidFound
	}
	if err := validateBidInput(in); err != nil {
		return err
	}

	ts := now.UnixMilli()
	b := &o.Bids[i]
	b.Price = utility.Float(utility.Dec(in.Price))
	b.EstimatedTime = in.EstimatedTime
	b.Note = in.Note
	b.UpdatedAt = ts
	o.UpdatedAt = ts
	return nil
}

// WithdrawBid rút giá đặt đang chờ khi đơn còn nhận giá
func (o *Order) WithdrawBid(actor authmodels.Actor, now time.Time) error {
	if !actor.Is(authmodels.RoleDriver) {
		return common.ErrForbidden
	}
	if !o.IsBiddable() {
		return common.WithDetails(common.ErrNotBiddable, map[string]string{"status": string(o.Status)})
	}
	i := o.findPendingBid(actor.UserID)
	if i < 0 {
		return common.ErrNoBidFound
	}
	o.Bids = append(o.Bids[:i], o.Bids[i+1:]...)
	o.UpdatedAt = now.UnixMilli()
	return nil
}

// AcceptBid chấp nhận giá của driverID: phân công tài xế, loại các giá khác và
// đưa đơn thẳng sang out_for_delivery (bỏ qua bảng chuyển trạng thái).
func (o *Order) AcceptBid(actor authmodels.Actor, policy BidAcceptancePolicy, driverID primitive.ObjectID, now time.Time) (*BidAcceptance, error) {
	assignedBy, err := policy.Authorize(actor, o, driverID)
	if err != nil {
		return nil, err
	}
	i := o.findPendingBid(driverID)
	if i < 0 {
		return nil, common.ErrNoBidFound
	}
	if !o.IsBiddable() {
		return nil, common.WithDetails(common.ErrNotBiddable, map[string]string{"status": string(o.Status)})
	}

	ts := now.UnixMilli()
	result := &BidAcceptance{}
	for j := range o.Bids {
		switch {
		case j == i:
			o.Bids[j].Status = BidAccepted
			o.Bids[j].UpdatedAt = ts
		case o.Bids[j].Status == BidPending:
			o.Bids[j].Status = BidRejected
			o.Bids[j].UpdatedAt = ts
			result.Rejected = append(result.Rejected, o.Bids[j].DriverID)
		}
	}
	result.Winner = o.Bids[i]

	o.DeliveryAssignment = &DeliveryAssignment{
		AssignedDriver: driverID,
		AssignedAt:     ts,
		AssignedBy:     assignedBy,
	}
	if eta, err := utility.ParseETA(result.Winner.EstimatedTime); err == nil {
		due := now.Add(eta).UnixMilli()
		o.EstimatedDeliveryTime = &due
	}
	o.NotifiedLate = false
	o.applyStatus(StatusOutForDelivery, actor, "bid accepted", now)
	return result, nil
}
