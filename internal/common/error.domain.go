package common

import "errors"

// Mã lỗi nghiệp vụ của sàn: đơn hàng, đấu giá tài xế, ví, thanh toán, kho hàng
var (
	ErrCodeOrderTransition = ErrorCode{Code: "ORD_001", Category: "Order", SubCategory: "Transition", Description: "Chuyển trạng thái đơn không hợp lệ"}
	ErrCodeOrderRating     = ErrorCode{Code: "ORD_002", Category: "Order", SubCategory: "Rating", Description: "Đánh giá đơn hàng"}

	ErrCodeBidNotBiddable = ErrorCode{Code: "BID_001", Category: "Bid", SubCategory: "State", Description: "Đơn không nhận đấu giá"}
	ErrCodeBidDuplicate   = ErrorCode{Code: "BID_002", Category: "Bid", SubCategory: "Duplicate", Description: "Tài xế đã đặt giá"}
	ErrCodeBidNotFound    = ErrorCode{Code: "BID_003", Category: "Bid", SubCategory: "Lookup", Description: "Không có giá đặt hợp lệ"}

	ErrCodeWalletBalance = ErrorCode{Code: "WAL_001", Category: "Wallet", SubCategory: "Balance", Description: "Số dư không đủ"}
	ErrCodeWalletLimit   = ErrorCode{Code: "WAL_002", Category: "Wallet", SubCategory: "Limit", Description: "Vượt hạn mức số dư"}
	ErrCodeWalletFrozen  = ErrorCode{Code: "WAL_003", Category: "Wallet", SubCategory: "Frozen", Description: "Ví đang bị khóa"}

	ErrCodePaymentRefunded = ErrorCode{Code: "PAY_001", Category: "Payment", SubCategory: "Refund", Description: "Đã hoàn tiền"}
	ErrCodePaymentAmount   = ErrorCode{Code: "PAY_002", Category: "Payment", SubCategory: "Amount", Description: "Số tiền không khớp"}
	ErrCodePaymentPaid     = ErrorCode{Code: "PAY_003", Category: "Payment", SubCategory: "State", Description: "Đơn đã thanh toán"}

	ErrCodeCatalogStock = ErrorCode{Code: "CAT_001", Category: "Catalog", SubCategory: "Stock", Description: "Không đủ tồn kho"}

	ErrCodeRelayFrame = ErrorCode{Code: "RLY_001", Category: "Relay", SubCategory: "Frame", Description: "Frame vị trí không hợp lệ"}
	ErrCodeRelayRate  = ErrorCode{Code: "RLY_002", Category: "Relay", SubCategory: "Rate", Description: "Gửi vị trí quá nhanh"}
)

var (
	ErrForbidden = NewError(ErrCodeAuthRole, MsgForbidden, StatusForbidden, nil)

	ErrInvalidTransition = NewError(ErrCodeOrderTransition, "Không thể chuyển trạng thái đơn hàng", StatusBadRequest, nil)
	ErrAlreadyRated      = NewError(ErrCodeOrderRating, "Đơn hàng đã được đánh giá", StatusBadRequest, nil)

	ErrNotBiddable  = NewError(ErrCodeBidNotBiddable, "Đơn hàng không còn nhận đặt giá", StatusBadRequest, nil)
	ErrDuplicateBid = NewError(ErrCodeBidDuplicate, "Tài xế đã đặt giá cho đơn này", StatusBadRequest, nil)
	ErrNoBidFound   = NewError(ErrCodeBidNotFound, "Không tìm thấy giá đặt của tài xế", StatusBadRequest, nil)

	ErrInsufficientBalance = NewError(ErrCodeWalletBalance, "Số dư ví không đủ", StatusBadRequest, nil)
	ErrLimitExceeded       = NewError(ErrCodeWalletLimit, "Vượt quá số dư tối đa của ví", StatusBadRequest, nil)
	ErrWalletFrozen        = NewError(ErrCodeWalletFrozen, "Ví đang bị đóng băng", StatusBadRequest, nil)

	ErrAlreadyRefunded = NewError(ErrCodePaymentRefunded, "Thanh toán đã được hoàn tiền", StatusBadRequest, nil)
	ErrAmountMismatch  = NewError(ErrCodePaymentAmount, "Số tiền hoàn vượt quá số tiền thanh toán", StatusBadRequest, nil)
	ErrAlreadyPaid     = NewError(ErrCodePaymentPaid, "Đơn hàng đã được thanh toán", StatusBadRequest, nil)

	ErrOutOfStock = NewError(ErrCodeCatalogStock, "Sản phẩm không đủ tồn kho", StatusBadRequest, nil)

	ErrInvalidFrame = NewError(ErrCodeRelayFrame, "Frame vị trí không hợp lệ", StatusBadRequest, nil)
	ErrRateLimited  = NewError(ErrCodeRelayRate, MsgTooManyRequests, StatusTooManyRequests, nil)
)

// HTTPStatus trả về status code của lỗi; lỗi lạ coi là 500
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return e.StatusCode
	}
	return StatusInternalServerError
}
