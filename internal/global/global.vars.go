// Package global giữ các handle dùng chung toàn process: cấu hình, client MongoDB,
// tên collection, registry collection và validator.
package global

import (
	"soug_elwahah/config"
	"soug_elwahah/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Stores   string // Cửa hàng
	Products string // Sản phẩm và tồn kho
	Orders   string // Đơn hàng (kèm bids, lịch sử trạng thái)

	Deliveries string // Bản ghi giao hàng tạo khi chấp nhận giá đặt
	Wallets    string // Ví và sổ giao dịch nhúng
	Payments   string // Các lần thanh toán
	Counters   string // Bộ đếm tăng dần (số thứ tự paymentId)

	Notifications           string // Hộp thư thông báo trong app
	NotificationPreferences string // Kênh nhận thông báo của từng user
	NotificationQueue       string // Outbox chờ gửi
	NotificationHistory     string // Lịch sử gửi
}

// Các biến toàn cục
var (
	Validate             *validator.Validate
	MongoDB_Session      *mongo.Client
	MongoDB_ServerConfig *config.Configuration
	MongoDB_ColNames     MongoDB_CollectionName

	RegistryCollections = registry.NewRegistry[*mongo.Collection]()
)

// Collection trả về collection đã đăng ký, panic nếu chưa có
func Collection(name string) *mongo.Collection {
	return RegistryCollections.MustGet(name)
}
