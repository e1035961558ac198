// Package registry cung cấp một registry generic, thread-safe, dùng để giữ các handle
// dùng chung trong process (ví dụ: *mongo.Collection theo tên collection).
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry lưu các item theo tên.
//
// Example:
//
//	reg := NewRegistry[*mongo.Collection]()
//	_, _ = reg.Register("orders", db.Collection("orders"))
//	coll, ok := reg.Get("orders")
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry tạo registry rỗng
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Register đăng ký item; ghi đè nếu tên đã tồn tại.
//
// Returns:
//   - isNew: false nếu item cũ bị ghi đè
//   - err: lỗi khi name rỗng
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("registry: name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get lấy item theo tên
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// MustGet lấy item theo tên, panic nếu chưa đăng ký.
// Chỉ dùng trong giai đoạn khởi tạo server.
func (r *Registry[T]) MustGet(name string) T {
	item, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("registry: %q is not registered", name))
	}
	return item
}

// Keys trả về danh sách tên đã đăng ký (đã sắp xếp)
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len trả về số item
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
