package global

import (
	"strings"

	"soug_elwahah/internal/utility"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InitValidator khởi tạo validator và đăng ký các custom validator chung
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("object_id", validateObjectID)
	_ = Validate.RegisterValidation("bid_eta", validateBidETA)
}

// RegisterEnum đăng ký tag kiểm tra giá trị nằm trong tập cho trước
// (order_status, payment_method, ... do package models cung cấp).
func RegisterEnum(tag string, allowed ...string) error {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return Validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	})
}

// validateNoXSS kiểm tra XSS đơn giản cho các trường text tự do (ghi chú, lý do hủy, ...)
func validateNoXSS(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range []string{"<script", "javascript:", "onerror=", "onload=", "<iframe", "document.cookie"} {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

func validateObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

// validateBidETA chấp nhận "30min", "1h", "1h30m", "45"
func validateBidETA(fl validator.FieldLevel) bool {
	_, err := utility.ParseETA(fl.Field().String())
	return err == nil
}

// ValidationDetails chuyển lỗi validator thành map field → tag để trả về client
func ValidationDetails(err error) map[string]string {
	details := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}
