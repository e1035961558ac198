// Package notification là tầng gửi thông báo: service nghiệp vụ gọi Notifier sau khi commit,
// Dispatcher đưa thông báo vào outbox theo kênh của người nhận, Processor gửi đi với retry.
package notification

import (
	"context"

	notifmodels "soug_elwahah/internal/api/notification/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Loại thông báo
const (
	TypeNewOrder        = "new_order"
	TypeOrderStatus     = "order_status"
	TypeOrderCancelled  = "order_cancelled"
	TypeBidPlaced       = "bid_placed"
	TypeBidAccepted     = "bid_accepted"
	TypeBidRejected     = "bid_rejected"
	TypeDriverAssigned  = "driver_assigned"
	TypeDeliveryUpdate  = "delivery_update"
	TypeLateDelivery    = "late_delivery"
	TypePaymentPaid     = "payment_paid"
	TypePaymentFailed   = "payment_failed"
	TypePaymentRefunded = "payment_refunded"
	TypeWalletFrozen    = "wallet_frozen"
)

// Message là một thông báo gửi tới một người nhận.
// DedupeKey (tùy chọn) chặn gửi trùng cùng một sự kiện.
type Message struct {
	RecipientID primitive.ObjectID
	Type        string
	Title       string
	Message     string
	Related     *notifmodels.Related
	DedupeKey   string
}

// Notifier gửi thông báo kiểu fire-and-forget: lỗi chỉ được log, không trả về caller
type Notifier interface {
	Notify(ctx context.Context, msgs ...Message)
}

// NopNotifier bỏ qua mọi thông báo
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ...Message) {}

// Batch gom thông báo trong lúc xử lý một thao tác để gửi sau khi commit
type Batch struct {
	msgs []Message
}

// Add thêm thông báo; bỏ qua người nhận rỗng hoặc chính là except (người thực hiện thao tác)
func (b *Batch) Add(except primitive.ObjectID, m Message) {
	if m.RecipientID.IsZero() || m.RecipientID == except {
		return
	}
	b.msgs = append(b.msgs, m)
}

// Reset xóa các thông báo đã gom (gọi đầu mỗi lần thử lại transaction)
func (b *Batch) Reset() {
	b.msgs = b.msgs[:0]
}

// Messages trả về các thông báo đã gom
func (b *Batch) Messages() []Message {
	return b.msgs
}

// Flush gửi các thông báo qua notifier
func (b *Batch) Flush(ctx context.Context, n Notifier) {
	if n == nil || len(b.msgs) == 0 {
		return
	}
	n.Notify(ctx, b.msgs...)
}

// RelatedTo tạo tham chiếu tới đối tượng nghiệp vụ
func RelatedTo(kind string, id primitive.ObjectID) *notifmodels.Related {
	return &notifmodels.Related{Kind: kind, ID: id.Hex()}
}
