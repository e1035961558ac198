// Package worker chứa các job nền chạy định kỳ cùng server.
package worker

import (
	"context"
	"fmt"
	"time"

	notifmodels "soug_elwahah/internal/api/notification/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LateOrderStore là phần kho đơn hàng mà worker cần
type LateOrderStore interface {
	FindLate(ctx context.Context, now int64, limit int) ([]ordermodels.Order, error)
	FlagNotifiedLate(ctx context.Context, id primitive.ObjectID, now int64) (bool, error)
}

// LateDeliveryWorker quét đơn đang giao đã quá giờ dự kiến và báo trễ cho khách, chủ cửa hàng.
// Mỗi đơn chỉ được báo một lần: chỉ lời gọi bật được notifiedLate mới gửi thông báo.
type LateDeliveryWorker struct {
	orders    LateOrderStore
	notifier  notification.Notifier
	interval  time.Duration // Khoảng thời gian giữa các lần quét
	batchSize int           // Số đơn tối đa mỗi lần quét
	now       func() time.Time
}

// NewLateDeliveryWorker tạo mới LateDeliveryWorker.
// Tham số:
//   - interval: Khoảng thời gian giữa các lần quét (mặc định: 1 phút)
//   - batchSize: Số đơn tối đa mỗi lần (mặc định: 100)
func NewLateDeliveryWorker(orders LateOrderStore, notifier notification.Notifier, interval time.Duration, batchSize int) *LateDeliveryWorker {
	if interval < time.Second {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &LateDeliveryWorker{
		orders:    orders,
		notifier:  notifier,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Sweep chạy một lần quét, trả về số đơn đã báo trễ
func (w *LateDeliveryWorker) Sweep(ctx context.Context) (int, error) {
	log := logger.GetAppLogger()
	now := w.now().UnixMilli()
	list, err := w.orders.FindLate(ctx, now, w.batchSize)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range list {
		o := &list[i]
		won, err := w.orders.FlagNotifiedLate(ctx, o.ID, now)
		if err != nil {
			log.WithError(err).WithField("orderId", o.ID.Hex()).Warn("⏰ [LATE_DELIVERY] Không bật được notifiedLate, thử lại lần sau")
			continue
		}
		if !won {
			// tiến trình khác đã báo hoặc đơn vừa đổi trạng thái
			continue
		}
		flagged++

		msg := notification.Message{
			Type:      notification.TypeLateDelivery,
			Title:     "Đơn hàng bị giao trễ",
			Message:   fmt.Sprintf("Đơn %s đã quá thời gian giao dự kiến", o.OrderNumber),
			Related:   notification.RelatedTo(notifmodels.RelatedOrder, o.ID),
			DedupeKey: "order:" + o.ID.Hex() + ":late",
		}
		var b notification.Batch
		for _, r := range []primitive.ObjectID{o.CustomerID, o.StoreOwnerID} {
			msg.RecipientID = r
			b.Add(primitive.NilObjectID, msg)
		}
		b.Flush(ctx, w.notifier)
	}
	return flagged, nil
}

// Start chạy worker trong vòng lặp cho tới khi ctx bị hủy
func (w *LateDeliveryWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":  w.interval.String(),
		"batchSize": w.batchSize,
	}).Info("⏰ [LATE_DELIVERY] Starting Late Delivery Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("⏰ [LATE_DELIVERY] Late Delivery Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("⏰ [LATE_DELIVERY] Panic khi quét đơn trễ, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				flagged, err := w.Sweep(ctx)
				if err != nil {
					log.WithError(err).Error("⏰ [LATE_DELIVERY] Lỗi quét đơn trễ")
					return
				}
				if flagged > 0 {
					log.WithFields(map[string]interface{}{
						"flagged": flagged,
					}).Info("⏰ [LATE_DELIVERY] Đã báo trễ cho các đơn")
				}
			}()
		}
	}
}
