package models

import (
	"fmt"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BidAcceptPolicy là chính sách ai được chấp nhận giá đặt
type BidAcceptPolicy string

const (
	// Tài xế tự chấp nhận giá của chính mình
	PolicyDriverSelf BidAcceptPolicy = "driver_self"
	// Khách (hoặc chủ cửa hàng, admin) chọn một giá trong danh sách
	PolicyCustomerSelect BidAcceptPolicy = "customer_select"
)

// BidAcceptancePolicy là điểm quyết định duy nhất cho quyền chấp nhận giá
type BidAcceptancePolicy struct {
	Mode BidAcceptPolicy
}

// NewBidAcceptancePolicy đọc chính sách từ cấu hình
func NewBidAcceptancePolicy(mode string) (BidAcceptancePolicy, error) {
	switch BidAcceptPolicy(mode) {
	case PolicyDriverSelf, PolicyCustomerSelect:
		return BidAcceptancePolicy{Mode: BidAcceptPolicy(mode)}, nil
	}
	return BidAcceptancePolicy{}, fmt.Errorf("unknown bid accept policy %q", mode)
}

// Authorize trả về assignedBy nếu actor được phép chấp nhận giá của driverID
func (p BidAcceptancePolicy) Authorize(actor authmodels.Actor, o *Order, driverID primitive.ObjectID) (authmodels.Role, error) {
	switch p.Mode {
	case PolicyDriverSelf:
		if actor.Is(authmodels.RoleDriver) && actor.UserID == driverID {
			return authmodels.RoleDriver, nil
		}
	case PolicyCustomerSelect:
		switch {
		case actor.IsAdmin():
			return authmodels.RoleAdmin, nil
		case actor.Is(authmodels.RoleCustomer) && o.IsCustomer(actor.UserID):
			return authmodels.RoleCustomer, nil
		case actor.Is(authmodels.RoleStore) && o.IsStoreOwner(actor.UserID):
			return authmodels.RoleStore, nil
		}
	}
	return "", common.WithDetails(common.ErrForbidden, map[string]string{"policy": string(p.Mode)})
}
