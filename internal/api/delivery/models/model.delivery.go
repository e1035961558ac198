// Package models - bản ghi giao hàng tạo ra khi đơn được phân công tài xế.
package models

import (
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryStatus là trạng thái của chuyến giao
type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryAssigned:  {DeliveryPickedUp, DeliveryCancelled},
	DeliveryPickedUp:  {DeliveryInTransit},
	DeliveryInTransit: {DeliveryDelivered, DeliveryFailed},
}

// AllDeliveryStatuses dùng cho validator delivery_status
func AllDeliveryStatuses() []string {
	return []string{
		string(DeliveryAssigned), string(DeliveryPickedUp), string(DeliveryInTransit),
		string(DeliveryDelivered), string(DeliveryFailed), string(DeliveryCancelled),
	}
}

// CanAdvance kiểm tra bước chuyển from → to
func CanAdvance(from, to DeliveryStatus) bool {
	for _, s := range deliveryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active: tài xế còn đang thực hiện chuyến giao
func (s DeliveryStatus) Active() bool {
	return s == DeliveryAssigned || s == DeliveryPickedUp || s == DeliveryInTransit
}

// Location là vị trí tài xế gửi lên
type Location struct {
	Lat       float64 `json:"lat" bson:"lat"`
	Lng       float64 `json:"lng" bson:"lng"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// StatusEntry là một bước trong lịch sử chuyến giao
type StatusEntry struct {
	Status    DeliveryStatus     `json:"status" bson:"status"`
	ChangedBy primitive.ObjectID `json:"changedBy" bson:"changedBy"`
	Role      authmodels.Role    `json:"role" bson:"role"`
	Note      string             `json:"note,omitempty" bson:"note,omitempty"`
	Timestamp int64              `json:"timestamp" bson:"timestamp"`
}

// Delivery là chuyến giao của một đơn; mỗi đơn có tối đa một bản ghi (unique orderId)
type Delivery struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID       primitive.ObjectID `json:"orderId" bson:"orderId" index:"unique"`
	DriverID      primitive.ObjectID `json:"driverId" bson:"driverId" index:"single:1"`
	CustomerID    primitive.ObjectID `json:"customerId" bson:"customerId"`
	StoreID       primitive.ObjectID `json:"storeId" bson:"storeId"`
	StoreOwnerID  primitive.ObjectID `json:"storeOwnerId" bson:"storeOwnerId"`
	Cost          float64            `json:"cost" bson:"cost"`
	Currency      string             `json:"currency" bson:"currency"`
	EstimatedTime string             `json:"estimatedTime" bson:"estimatedTime"`

	Status        DeliveryStatus `json:"status" bson:"status" index:"single:1"`
	StatusHistory []StatusEntry  `json:"statusHistory" bson:"statusHistory"`
	LastLocation  *Location      `json:"lastLocation,omitempty" bson:"lastLocation,omitempty"`

	AssignedAt  int64  `json:"assignedAt" bson:"assignedAt"`
	PickedUpAt  *int64 `json:"pickedUpAt,omitempty" bson:"pickedUpAt,omitempty"`
	DeliveredAt *int64 `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`

	Version   int64 `json:"version" bson:"version"`
	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}

// NewDeliveryParams là dữ liệu dựng chuyến giao từ đơn và giá thắng
type NewDeliveryParams struct {
	OrderID       primitive.ObjectID
	DriverID      primitive.ObjectID
	CustomerID    primitive.ObjectID
	StoreID       primitive.ObjectID
	StoreOwnerID  primitive.ObjectID
	Cost          float64
	Currency      string
	EstimatedTime string
	AssignedBy    authmodels.Role
	AssignedByID  primitive.ObjectID
}

// NewDelivery dựng chuyến giao ở trạng thái assigned
func NewDelivery(p NewDeliveryParams, now time.Time) *Delivery {
	ts := now.UnixMilli()
	return &Delivery{
		ID:            primitive.NewObjectID(),
		OrderID:       p.OrderID,
		DriverID:      p.DriverID,
		CustomerID:    p.CustomerID,
		StoreID:       p.StoreID,
		StoreOwnerID:  p.StoreOwnerID,
		Cost:          p.Cost,
		Currency:      p.Currency,
		EstimatedTime: p.EstimatedTime,
		Status:        DeliveryAssigned,
		StatusHistory: []StatusEntry{{
			Status:    DeliveryAssigned,
			ChangedBy: p.AssignedByID,
			Role:      p.AssignedBy,
			Timestamp: ts,
		}},
		AssignedAt: ts,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

// CanView: tài xế, khách, chủ cửa hàng của đơn hoặc admin
func (d *Delivery) CanView(actor authmodels.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	switch actor.ActiveRole {
	case authmodels.RoleDriver:
		return d.DriverID == actor.UserID
	case authmodels.RoleCustomer:
		return d.CustomerID == actor.UserID
	case authmodels.RoleStore:
		return d.StoreOwnerID == actor.UserID
	}
	return false
}

// Advance chuyển trạng thái; chỉ tài xế được giao hoặc admin
func (d *Delivery) Advance(actor authmodels.Actor, to DeliveryStatus, note string, now time.Time) error {
	if !actor.IsAdmin() && !(actor.Is(authmodels.RoleDriver) && d.DriverID == actor.UserID) {
		return common.ErrForbidden
	}
	if !CanAdvance(d.Status, to) {
		return common.WithDetails(common.ErrInvalidTransition, map[string]string{
			"from": string(d.Status),
			"to":   string(to),
		})
	}
	ts := now.UnixMilli()
	d.Status = to
	d.StatusHistory = append(d.StatusHistory, StatusEntry{
		Status:    to,
		ChangedBy: actor.UserID,
		Role:      actor.ActiveRole,
		Note:      note,
		Timestamp: ts,
	})
	switch to {
	case DeliveryPickedUp:
		d.PickedUpAt = &ts
	case DeliveryDelivered:
		d.DeliveredAt = &ts
	}
	d.UpdatedAt = ts
	return nil
}

// AcceptsLocationFrom: chỉ tài xế được giao, khi chuyến còn đang chạy
func (d *Delivery) AcceptsLocationFrom(driverID primitive.ObjectID) error {
	if d.DriverID != driverID {
		return common.ErrForbidden
	}
	if !d.Status.Active() {
		return common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(d.Status)})
	}
	return nil
}
