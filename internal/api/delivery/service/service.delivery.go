package deliverysvc

import (
	"context"
	"fmt"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	deliverymodels "soug_elwahah/internal/api/delivery/models"
	"soug_elwahah/internal/api/events"
	notifmodels "soug_elwahah/internal/api/notification/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxMutateAttempts = 5

// DeliveryRepository là kho lưu chuyến giao
type DeliveryRepository interface {
	Insert(ctx context.Context, d *deliverymodels.Delivery) error
	Get(ctx context.Context, id primitive.ObjectID) (*deliverymodels.Delivery, error)
	GetByOrder(ctx context.Context, orderID primitive.ObjectID) (*deliverymodels.Delivery, error)
	Replace(ctx context.Context, d *deliverymodels.Delivery, expectedVersion int64) error
	SetLastLocation(ctx context.Context, id primitive.ObjectID, loc deliverymodels.Location) error
}

// DeliveryService là nghiệp vụ chuyến giao; order service gọi CreateForOrder khi chấp nhận giá
type DeliveryService struct {
	deliveries DeliveryRepository
	notifier   notification.Notifier
	now        func() time.Time
}

func NewDeliveryService(deliveries DeliveryRepository, notifier notification.Notifier) *DeliveryService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &DeliveryService{deliveries: deliveries, notifier: notifier, now: time.Now}
}

// CreateForOrder tạo chuyến giao cho đơn vừa được phân công; chạy trong transaction của order service.
// Đơn đã có chuyến giao → ErrDuplicate.
func (s *DeliveryService) CreateForOrder(ctx context.Context, o *ordermodels.Order, winner ordermodels.Bid) error {
	p := deliverymodels.NewDeliveryParams{
		OrderID:       o.ID,
		DriverID:      winner.DriverID,
		CustomerID:    o.CustomerID,
		StoreID:       o.StoreID,
		StoreOwnerID:  o.StoreOwnerID,
		Cost:          winner.Price,
		Currency:      o.Currency,
		EstimatedTime: winner.EstimatedTime,
	}
	if o.DeliveryAssignment != nil {
		p.AssignedBy = o.DeliveryAssignment.AssignedBy
	}
	if n := len(o.StatusHistory); n > 0 {
		p.AssignedByID = o.StatusHistory[n-1].ChangedBy
	}
	d := deliverymodels.NewDelivery(p, s.now())
	if err := s.deliveries.Insert(ctx, d); err != nil {
		if common.IsDuplicate(err) {
			return common.WithDetails(common.ErrDuplicate, map[string]string{"orderId": o.ID.Hex()})
		}
		return err
	}
	return nil
}

// Get trả chuyến giao cho người liên quan hoặc admin
func (s *DeliveryService) Get(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID) (*deliverymodels.Delivery, error) {
	d, err := s.deliveries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.CanView(actor) {
		return nil, common.ErrForbidden
	}
	return d, nil
}

// GetByOrder trả chuyến giao của đơn
func (s *DeliveryService) GetByOrder(ctx context.Context, actor authmodels.Actor, orderID primitive.ObjectID) (*deliverymodels.Delivery, error) {
	d, err := s.deliveries.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !d.CanView(actor) {
		return nil, common.ErrForbidden
	}
	return d, nil
}

// UpdateStatus chuyển trạng thái chuyến giao (CAS, thử lại khi xung đột version)
func (s *DeliveryService) UpdateStatus(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, to deliverymodels.DeliveryStatus, note string) (*deliverymodels.Delivery, error) {
	var (
		d   *deliverymodels.Delivery
		err error
	)
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		d, err = s.deliveries.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := d.Version
		if err = d.Advance(actor, to, note, s.now()); err != nil {
			return nil, err
		}
		d.Version = expected + 1
		err = s.deliveries.Replace(ctx, d, expected)
		if !common.Retryable(ctx, err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	logger.LogAction(ctx, logger.AuditAction{
		Action:       "delivery_status",
		UserID:       actor.UserID.Hex(),
		Role:         string(actor.ActiveRole),
		ResourceType: "delivery",
		ResourceID:   d.ID.Hex(),
		Details:      map[string]interface{}{"orderId": d.OrderID.Hex(), "status": string(to), "note": note},
	})
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"deliveryId": d.ID.Hex(),
		"orderId":    d.OrderID.Hex(),
		"status":     to,
	}).Info("Đã cập nhật trạng thái giao hàng")

	s.notifyStatus(ctx, actor, d)
	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.Deliveries,
		Operation:      events.OpUpdate,
		Document:       *d,
	})
	return d, nil
}

func (s *DeliveryService) notifyStatus(ctx context.Context, actor authmodels.Actor, d *deliverymodels.Delivery) {
	msg := notification.Message{
		Type:      notification.TypeDeliveryUpdate,
		Title:     "Cập nhật giao hàng",
		Message:   fmt.Sprintf("Chuyến giao của đơn đã chuyển sang %s", d.Status),
		Related:   notification.RelatedTo(notifmodels.RelatedDelivery, d.ID),
		DedupeKey: fmt.Sprintf("delivery:%s:%s", d.ID.Hex(), d.Status),
	}
	if d.Status == deliverymodels.DeliveryDelivered {
		msg.Title = "Đơn hàng đã được giao"
		msg.Message = "Tài xế báo đã giao hàng, vui lòng xác nhận đã nhận đơn"
		msg.Related = notification.RelatedTo(notifmodels.RelatedOrder, d.OrderID)
	}

	var b notification.Batch
	msg.RecipientID = d.CustomerID
	b.Add(actor.UserID, msg)
	if d.Status == deliverymodels.DeliveryFailed || d.Status == deliverymodels.DeliveryCancelled {
		msg.RecipientID = d.StoreOwnerID
		b.Add(actor.UserID, msg)
	}
	b.Flush(ctx, s.notifier)
}

// RecordLocation ghi vị trí tài xế cho chuyến giao đang chạy của đơn.
// Tài xế không được giao hoặc chuyến đã kết thúc → lỗi, không ghi gì.
func (s *DeliveryService) RecordLocation(ctx context.Context, driverID, orderID primitive.ObjectID, loc deliverymodels.Location) (*deliverymodels.Delivery, error) {
	d, err := s.deliveries.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := d.AcceptsLocationFrom(driverID); err != nil {
		return nil, err
	}
	if err := s.deliveries.SetLastLocation(ctx, d.ID, loc); err != nil {
		return nil, err
	}
	d.LastLocation = &loc
	return d, nil
}
