// Package events là bus sự kiện trong process khi dữ liệu nghiệp vụ thay đổi.
// Service phát sự kiện sau khi transaction commit; relay realtime đăng ký qua OnDataChanged.
package events

import (
	"context"
	"sync"

	"soug_elwahah/internal/logger"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// DataChangeEvent mô tả sự kiện thay đổi dữ liệu.
// Document là bản ghi sau khi thay đổi (nil nếu delete).
type DataChangeEvent struct {
	CollectionName string
	Operation      string
	Document       interface{}
}

// DataChangeHandler xử lý sự kiện thay đổi dữ liệu
type DataChangeHandler func(ctx context.Context, e DataChangeEvent)

var (
	handlers   []DataChangeHandler
	handlersMu sync.RWMutex
)

// OnDataChanged đăng ký handler, gọi lúc khởi tạo
func OnDataChanged(h DataChangeHandler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, h)
}

// EmitDataChanged phát sự kiện tới mọi handler.
// Mỗi handler chạy trong goroutine riêng với context không bị hủy theo request.
func EmitDataChanged(ctx context.Context, e DataChangeEvent) {
	handlersMu.RLock()
	list := make([]DataChangeHandler, len(handlers))
	copy(list, handlers)
	handlersMu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, h := range list {
		go func(fn DataChangeHandler) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithModule("events").WithField("collection", e.CollectionName).Errorf("Handler panic: %v", r)
				}
			}()
			fn(detached, e)
		}(h)
	}
}

// ResetHandlers xóa toàn bộ handler (dùng trong test)
func ResetHandlers() {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = nil
}
