// Package utility chứa các hàm tiện ích nhỏ dùng chung: thời gian, ObjectID, tiền tệ, mã định danh
package utility

import (
	"fmt"
	"runtime/debug"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoProtect chạy f và nuốt panic, trả về lỗi thay vì làm sập goroutine gọi
func GoProtect(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v\n%s", r, debug.Stack())
		}
	}()
	f()
	return nil
}

// UnixMilli trả về mili giây của thời gian cho trước
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}

// CurrentTimeInMilli trả về timestamp hiện tại (mili giây)
func CurrentTimeInMilli() int64 {
	return time.Now().UnixMilli()
}

// String2ObjectID chuyển chuỗi hex thành ObjectID, chuỗi sai định dạng trả về NilObjectID
func String2ObjectID(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// ToMap chuyển struct thành map theo bson tag
func ToMap(s interface{}) (map[string]interface{}, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("bson marshal failed: %w", err)
	}
	var m map[string]interface{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("bson unmarshal failed: %w", err)
	}
	return m, nil
}

// Contains kiểm tra phần tử có trong slice
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
