package ordersvc

import (
	"context"
	"fmt"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/events"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlaceBid: tài xế đặt giá giao hàng cho đơn còn nhận đặt giá
func (s *OrderService) PlaceBid(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, in ordermodels.BidInput) (*ordermodels.Order, error) {
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		return o.PlaceBid(actor, in, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}

	audit(ctx, "bid_place", actor, o, map[string]interface{}{"price": in.Price, "estimatedTime": in.EstimatedTime})
	var b notification.Batch
	msg := notification.Message{
		Type:      notification.TypeBidPlaced,
		Title:     "Có giá giao hàng mới",
		Message:   fmt.Sprintf("Đơn %s nhận giá %.2f %s, dự kiến %s", o.OrderNumber, in.Price, o.Currency, in.EstimatedTime),
		Related:   orderRef(o),
		DedupeKey: fmt.Sprintf("order:%s:bid:%s:v%d", o.ID.Hex(), actor.UserID.Hex(), o.Version),
	}
	msg.RecipientID = o.CustomerID
	b.Add(actor.UserID, msg)
	msg.RecipientID = o.StoreOwnerID
	b.Add(actor.UserID, msg)
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}

// UpdateBid: tài xế sửa giá đang chờ của mình
func (s *OrderService) UpdateBid(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, in ordermodels.BidInput) (*ordermodels.Order, error) {
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		return o.UpdateBid(actor, in, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	audit(ctx, "bid_update", actor, o, map[string]interface{}{"price": in.Price, "estimatedTime": in.EstimatedTime})
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}

// WithdrawBid: tài xế rút giá đang chờ của mình
func (s *OrderService) WithdrawBid(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID) (*ordermodels.Order, error) {
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		return o.WithdrawBid(actor, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	audit(ctx, "bid_withdraw", actor, o, nil)
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}

// AcceptBid chấp nhận giá của driverID theo chính sách đang cấu hình.
// Ghi đơn và tạo đúng một bản ghi giao hàng trong cùng một đơn vị.
func (s *OrderService) AcceptBid(ctx context.Context, actor authmodels.Actor, id, driverID primitive.ObjectID) (*ordermodels.Order, error) {
	var acceptance *ordermodels.BidAcceptance
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		a, err := o.AcceptBid(actor, s.policy, driverID, s.now())
		acceptance = a
		return err
	}, func(txCtx context.Context, o *ordermodels.Order) error {
		return s.deliveries.CreateForOrder(txCtx, o, acceptance.Winner)
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, "bid_accept", actor, o, map[string]interface{}{
		"driverId":   driverID.Hex(),
		"price":      acceptance.Winner.Price,
		"assignedBy": o.DeliveryAssignment.AssignedBy,
		"rejected":   len(acceptance.Rejected),
	})
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"orderId":  o.ID.Hex(),
		"driverId": driverID.Hex(),
		"policy":   s.policy.Mode,
	}).Info("Đã phân công tài xế cho đơn hàng")

	var b notification.Batch
	key := "order:" + o.ID.Hex() + ":assigned"
	assigned := notification.Message{
		Type:      notification.TypeDriverAssigned,
		Title:     "Đơn hàng đang được giao",
		Message:   fmt.Sprintf("Đơn %s đã có tài xế nhận giao, phí %.2f %s", o.OrderNumber, acceptance.Winner.Price, o.Currency),
		Related:   orderRef(o),
		DedupeKey: key,
	}
	assigned.RecipientID = o.CustomerID
	b.Add(actor.UserID, assigned)
	assigned.RecipientID = o.StoreOwnerID
	b.Add(actor.UserID, assigned)
	b.Add(actor.UserID, notification.Message{
		RecipientID: driverID,
		Type:        notification.TypeBidAccepted,
		Title:       "Giá của bạn đã được chấp nhận",
		Message:     fmt.Sprintf("Bạn được giao đơn %s", o.OrderNumber),
		Related:     orderRef(o),
		DedupeKey:   key + ":winner",
	})
	for _, d := range acceptance.Rejected {
		b.Add(actor.UserID, notification.Message{
			RecipientID: d,
			Type:        notification.TypeBidRejected,
			Title:       "Giá của bạn không được chọn",
			Message:     fmt.Sprintf("Đơn %s đã được giao cho tài xế khác", o.OrderNumber),
			Related:     orderRef(o),
			DedupeKey:   key + ":rejected",
		})
	}
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}
