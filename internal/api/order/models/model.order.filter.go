package models

import (
	authmodels "soug_elwahah/internal/api/auth/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderFilter là điều kiện liệt kê đơn, đã được giới hạn theo role của người xem
type OrderFilter struct {
	CustomerID   *primitive.ObjectID
	StoreOwnerID *primitive.ObjectID
	// DriverID: đơn được giao cho tài xế này hoặc còn nhận đặt giá
	DriverID *primitive.ObjectID
	Status   OrderStatus
}

// ScopeFor dựng filter theo role đang dùng của actor; admin thấy tất cả
func ScopeFor(actor authmodels.Actor, status OrderStatus) OrderFilter {
	f := OrderFilter{Status: status}
	uid := actor.UserID
	switch actor.ActiveRole {
	case authmodels.RoleCustomer:
		f.CustomerID = &uid
	case authmodels.RoleStore:
		f.StoreOwnerID = &uid
	case authmodels.RoleDriver:
		f.DriverID = &uid
	}
	return f
}

// BSON chuyển filter thành truy vấn MongoDB
func (f OrderFilter) BSON() bson.M {
	q := bson.M{}
	if f.CustomerID != nil {
		q["customerId"] = *f.CustomerID
	}
	if f.StoreOwnerID != nil {
		q["storeOwnerId"] = *f.StoreOwnerID
	}
	if f.DriverID != nil {
		q["$or"] = []bson.M{
			{"deliveryAssignment.assignedDriver": *f.DriverID},
			{
				"status":             bson.M{"$in": []OrderStatus{StatusPending, StatusConfirmed}},
				"deliveryAssignment": bson.M{"$exists": false},
			},
		}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// Matches là cùng điều kiện với BSON, áp dụng trên bộ nhớ
func (f OrderFilter) Matches(o *Order) bool {
	if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
		return false
	}
	if f.StoreOwnerID != nil && o.StoreOwnerID != *f.StoreOwnerID {
		return false
	}
	if f.DriverID != nil && !o.IsAssignedDriver(*f.DriverID) {
		open := (o.Status == StatusPending || o.Status == StatusConfirmed) && o.DeliveryAssignment == nil
		if !open {
			return false
		}
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}
