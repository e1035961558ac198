// Package models - vai trò và người thực hiện thao tác (Actor) thuộc domain auth.
package models

import (
	"soug_elwahah/internal/common"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role là vai trò của người dùng trên sàn
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStore    Role = "store"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// rolePriority dùng khi suy ra ActiveRole mặc định
var rolePriority = []Role{RoleAdmin, RoleStore, RoleDriver, RoleCustomer}

// Valid kiểm tra role có thuộc tập vai trò hệ thống
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStore, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// RoleSet là tập vai trò không trùng lặp, giữ thứ tự thêm vào
type RoleSet []Role

// NewRoleSet tạo RoleSet, bỏ giá trị trùng và giá trị không hợp lệ
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{}
	for _, r := range roles {
		if r.Valid() && !set.Has(r) {
			set = append(set, r)
		}
	}
	return set
}

// Has kiểm tra tập có chứa role
func (s RoleSet) Has(r Role) bool {
	for _, v := range s {
		if v == r {
			return true
		}
	}
	return false
}

// Strings trả về danh sách role dạng chuỗi
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}

// Actor là người đang thực hiện thao tác: tập vai trò và vai trò đang dùng
type Actor struct {
	UserID     primitive.ObjectID `json:"userId"`
	Roles      RoleSet            `json:"roles"`
	ActiveRole Role               `json:"activeRole"`
}

// NewActor dựng Actor và suy ra ActiveRole.
// requested rỗng → lấy vai trò ưu tiên cao nhất; requested không nằm trong tập → Forbidden.
func NewActor(userID primitive.ObjectID, roles RoleSet, requested Role) (Actor, error) {
	if userID.IsZero() || len(roles) == 0 {
		return Actor{}, common.ErrForbidden
	}
	a := Actor{UserID: userID, Roles: roles}
	if requested != "" {
		if !roles.Has(requested) {
			return Actor{}, common.ErrForbidden
		}
		a.ActiveRole = requested
		return a, nil
	}
	for _, r := range rolePriority {
		if roles.Has(r) {
			a.ActiveRole = r
			break
		}
	}
	return a, nil
}

// Is kiểm tra vai trò đang dùng
func (a Actor) Is(r Role) bool {
	return a.ActiveRole == r
}

// IsAdmin kiểm tra actor đang dùng vai trò admin
func (a Actor) IsAdmin() bool {
	return a.ActiveRole == RoleAdmin
}
