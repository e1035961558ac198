// Package models chứa các kiểu dùng chung cho layer repository/base (kết quả phân trang).
package models

import "math"

// PaginateResult đại diện cho kết quả phân trang
type PaginateResult[T any] struct {
	Page      int64 `json:"page" bson:"page"`           // Trang hiện tại
	Limit     int64 `json:"limit" bson:"limit"`         // Số mục mỗi trang
	ItemCount int64 `json:"itemCount" bson:"itemCount"` // Số mục trong trang hiện tại
	Items     []T   `json:"items" bson:"items"`
	Total     int64 `json:"total" bson:"total"`         // Tổng số mục
	TotalPage int64 `json:"totalPage" bson:"totalPage"` // Tổng số trang
}

// NormalizePage chuẩn hóa page >= 1 và 0 < limit <= 100.
// page bị chặn trên để (page-1)*limit + limit không tràn int64.
func NormalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if page > math.MaxInt64/limit {
		page = math.MaxInt64 / limit
	}
	return page, limit
}

// NewPaginateResult dựng kết quả phân trang từ items của trang và tổng số
func NewPaginateResult[T any](items []T, page, limit, total int64) *PaginateResult[T] {
	if items == nil {
		items = []T{}
	}
	var totalPage int64
	if total > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return &PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: totalPage,
	}
}

// Paginate cắt một slice trong bộ nhớ theo trang (dùng cho sổ giao dịch nhúng trong document)
func Paginate[T any](all []T, page, limit int64) *PaginateResult[T] {
	page, limit = NormalizePage(page, limit)
	total := int64(len(all))
	start := (page - 1) * limit
	if start < 0 || start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return NewPaginateResult(append([]T(nil), all[start:end]...), page, limit, total)
}
