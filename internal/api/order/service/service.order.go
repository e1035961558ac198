package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	"soug_elwahah/internal/api/events"
	notifmodels "soug_elwahah/internal/api/notification/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"
	"soug_elwahah/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxMutateAttempts      = 5
	maxOrderNumberAttempts = 5
)

// OrderRepository là kho đơn hàng với CAS theo version
type OrderRepository interface {
	Insert(ctx context.Context, o *ordermodels.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*ordermodels.Order, error)
	Replace(ctx context.Context, o *ordermodels.Order, expectedVersion int64) error
	List(ctx context.Context, filter ordermodels.OrderFilter, page, limit int64) (*basemodels.PaginateResult[ordermodels.Order], error)
	SetDriverLocation(ctx context.Context, id primitive.ObjectID, p ordermodels.GeoPoint, at int64) error
}

// Catalog là phần danh mục mà đơn hàng cần: đọc giá, giữ và trả tồn kho
type Catalog interface {
	GetStore(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Store, error)
	FindProducts(ctx context.Context, ids []primitive.ObjectID) ([]catalogmodels.Product, error)
	Decrement(ctx context.Context, productID primitive.ObjectID, qty int) error
	Increment(ctx context.Context, productID primitive.ObjectID, qty int) error
}

// DeliveryCreator tạo bản ghi giao hàng khi giá đặt được chấp nhận (cùng transaction với đơn)
type DeliveryCreator interface {
	CreateForOrder(ctx context.Context, o *ordermodels.Order, winner ordermodels.Bid) error
}

// ItemInput là một dòng hàng khách đặt
type ItemInput struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// CreateOrderInput là dữ liệu tạo đơn
type CreateOrderInput struct {
	Items   []ItemInput
	Address ordermodels.Address
	Notes   string
}

// OrderService là nghiệp vụ đơn hàng
type OrderService struct {
	orders     OrderRepository
	catalog    Catalog
	deliveries DeliveryCreator
	tx         database.TxRunner
	notifier   notification.Notifier
	machine    *ordermodels.StatusMachine
	policy     ordermodels.BidAcceptancePolicy

	defaultFee float64
	currency   string
	compensate bool // runner không rollback thì service tự bù trừ (trả tồn kho, khôi phục đơn)
	now        func() time.Time
}

// OrderServiceConfig là tham số nghiệp vụ lấy từ cấu hình
type OrderServiceConfig struct {
	Machine            *ordermodels.StatusMachine
	Policy             ordermodels.BidAcceptancePolicy
	DefaultDeliveryFee float64
	DefaultCurrency    string
}

// NewOrderService tạo OrderService
func NewOrderService(orders OrderRepository, catalog Catalog, deliveries DeliveryCreator, tx database.TxRunner, notifier notification.Notifier, cfg OrderServiceConfig) *OrderService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	if cfg.Machine == nil {
		cfg.Machine = ordermodels.NewStatusMachine(false)
	}
	if cfg.Policy.Mode == "" {
		cfg.Policy.Mode = ordermodels.PolicyDriverSelf
	}
	return &OrderService{
		orders:     orders,
		catalog:    catalog,
		deliveries: deliveries,
		tx:         tx,
		notifier:   notifier,
		machine:    cfg.Machine,
		policy:     cfg.Policy,
		defaultFee: cfg.DefaultDeliveryFee,
		currency:   cfg.DefaultCurrency,
		compensate: !database.Atomic(tx),
		now:        time.Now,
	}
}

// Policy trả về chính sách chấp nhận giá đang dùng
func (s *OrderService) Policy() ordermodels.BidAcceptancePolicy {
	return s.policy
}

// mutate đọc đơn, áp fn rồi ghi lại với CAS; xung đột version thì thử lại.
// inTx (tùy chọn) chạy cùng transaction sau khi ghi đơn.
func (s *OrderService) mutate(ctx context.Context, id primitive.ObjectID, fn func(o *ordermodels.Order) error, inTx func(ctx context.Context, o *ordermodels.Order) error) (*ordermodels.Order, error) {
	apply := func(ctx context.Context) (*ordermodels.Order, error) {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := o.Version
		orig := o.Clone()
		if err := fn(o); err != nil {
			return nil, err
		}
		o.Version = expected + 1
		if err := s.orders.Replace(ctx, o, expected); err != nil {
			return nil, err
		}
		if inTx != nil {
			if err := inTx(ctx, o); err != nil {
				if s.compensate {
					s.restore(ctx, orig, o.Version)
				}
				return nil, err
			}
		}
		return o, nil
	}

	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		var (
			out *ordermodels.Order
			err error
		)
		if inTx == nil {
			out, err = apply(ctx)
		} else {
			err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
				o, err := apply(txCtx)
				out = o
				return err
			})
		}
		if common.Retryable(ctx, err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, common.ErrVersionConflict
}

// restore ghi lại bản trước khi sửa khi runner không rollback được
func (s *OrderService) restore(ctx context.Context, orig *ordermodels.Order, current int64) {
	orig.Version = current + 1
	if err := s.orders.Replace(ctx, orig, current); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("orderId", orig.ID.Hex()).Error("Không khôi phục được đơn hàng sau lỗi")
	}
}

func (s *OrderService) emit(ctx context.Context, op string, o *ordermodels.Order) {
	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.Orders,
		Operation:      op,
		Document:       *o,
	})
}

func audit(ctx context.Context, action string, actor authmodels.Actor, o *ordermodels.Order, details map[string]interface{}) {
	logger.LogAction(ctx, logger.AuditAction{
		Action:       action,
		UserID:       actor.UserID.Hex(),
		Role:         string(actor.ActiveRole),
		ResourceType: "order",
		ResourceID:   o.ID.Hex(),
		Details:      details,
	})
}

// participants thêm thông báo cho khách, chủ cửa hàng và tài xế được phân công (trừ actor)
func participants(b *notification.Batch, actor authmodels.Actor, o *ordermodels.Order, m notification.Message) {
	recipients := []primitive.ObjectID{o.CustomerID, o.StoreOwnerID}
	if o.DeliveryAssignment != nil {
		recipients = append(recipients, o.DeliveryAssignment.AssignedDriver)
	}
	for _, r := range recipients {
		msg := m
		msg.RecipientID = r
		b.Add(actor.UserID, msg)
	}
}

func orderRef(o *ordermodels.Order) *notifmodels.Related {
	return notification.RelatedTo(notifmodels.RelatedOrder, o.ID)
}

// Create tạo đơn: kiểm tra sản phẩm cùng một cửa hàng, chụp giá, giữ tồn kho và lưu đơn trong một đơn vị
func (s *OrderService) Create(ctx context.Context, actor authmodels.Actor, in CreateOrderInput) (*ordermodels.Order, error) {
	if !actor.Is(authmodels.RoleCustomer) {
		return nil, common.ErrForbidden
	}
	if len(in.Items) == 0 {
		return nil, common.WithDetails(common.ErrInvalidInput, "items required")
	}

	// gộp dòng trùng sản phẩm, giữ thứ tự
	qty := map[primitive.ObjectID]int{}
	var ids []primitive.ObjectID
	for _, it := range in.Items {
		if it.Quantity <= 0 || it.ProductID.IsZero() {
			return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"productId": it.ProductID.Hex()})
		}
		if _, ok := qty[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}

	products, err := s.catalog.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]catalogmodels.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var storeID primitive.ObjectID
	items := make([]ordermodels.OrderItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, common.WithDetails(common.ErrNotFound, map[string]string{"productId": id.Hex()})
		}
		if !p.IsActive {
			return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"productId": id.Hex(), "reason": "inactive"})
		}
		if storeID.IsZero() {
			storeID = p.StoreID
		} else if p.StoreID != storeID {
			return nil, common.WithDetails(common.ErrInvalidInput, "items must belong to one store")
		}
		items = append(items, ordermodels.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: qty[id], Price: p.Price})
	}

	store, err := s.catalog.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"storeId": storeID.Hex(), "reason": "inactive"})
	}
	fee := s.defaultFee
	if store.DeliveryFee != nil {
		fee = *store.DeliveryFee
	}
	currency := store.Currency
	if currency == "" {
		currency = s.currency
	}

	var order *ordermodels.Order
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		now := s.now()
		o, err := ordermodels.NewOrder(ordermodels.NewOrderParams{
			OrderNumber:  utility.NewOrderNumber(now),
			Customer:     actor,
			StoreID:      store.ID,
			StoreOwnerID: store.OwnerID,
			Items:        items,
			DeliveryFee:  fee,
			Currency:     currency,
			Address:      in.Address,
			Notes:        in.Notes,
		}, now)
		if err != nil {
			return nil, err
		}

		err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
			return s.reserveAndInsert(txCtx, o)
		})
		if common.IsDuplicate(err) {
			logger.WithContext(ctx).WithField("orderNumber", o.OrderNumber).Warn("Trùng mã đơn, sinh mã mới")
			continue
		}
		if err != nil {
			return nil, err
		}
		order = o
		break
	}
	if order == nil {
		return nil, common.WithDetails(common.ErrDuplicate, "could not allocate order number")
	}

	audit(ctx, "order_create", actor, order, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"total":       order.TotalAmount,
	})
	var b notification.Batch
	b.Add(actor.UserID, notification.Message{
		RecipientID: order.StoreOwnerID,
		Type:        notification.TypeNewOrder,
		Title:       "Đơn hàng mới",
		Message:     fmt.Sprintf("Đơn %s: %.2f %s", order.OrderNumber, order.TotalAmount, order.Currency),
		Related:     orderRef(order),
		DedupeKey:   "order:" + order.ID.Hex() + ":created",
	})
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpInsert, order)
	return order, nil
}

// reserveAndInsert giữ tồn kho từng dòng rồi lưu đơn; runner không atomic thì trả lại phần đã giữ khi lỗi
func (s *OrderService) reserveAndInsert(ctx context.Context, o *ordermodels.Order) (err error) {
	var reserved []ordermodels.OrderItem
	defer func() {
		if err == nil || !s.compensate {
			return
		}
		for _, it := range reserved {
			if rerr := s.catalog.Increment(ctx, it.ProductID, it.Quantity); rerr != nil {
				logger.WithContext(ctx).WithError(rerr).WithField("productId", it.ProductID.Hex()).Error("Không trả lại được tồn kho")
			}
		}
	}()

	for _, it := range o.Items {
		if err = s.catalog.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		reserved = append(reserved, it)
	}
	return s.orders.Insert(ctx, o)
}

// Get trả về đơn nếu actor là người liên quan hoặc admin
func (s *OrderService) Get(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID) (*ordermodels.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.CanView(actor) {
		return nil, common.ErrForbidden
	}
	return o, nil
}

// Load đọc đơn không kiểm tra quyền (dùng nội bộ giữa các service)
func (s *OrderService) Load(ctx context.Context, id primitive.ObjectID) (*ordermodels.Order, error) {
	return s.orders.Get(ctx, id)
}

// List liệt kê đơn trong phạm vi role đang dùng của actor
func (s *OrderService) List(ctx context.Context, actor authmodels.Actor, status ordermodels.OrderStatus, page, limit int64) (*basemodels.PaginateResult[ordermodels.Order], error) {
	if status != "" && !s.machine.Known(status) {
		return nil, common.WithDetails(common.ErrInvalidInput, map[string]string{"status": string(status)})
	}
	page, limit = basemodels.NormalizePage(page, limit)
	return s.orders.List(ctx, ordermodels.ScopeFor(actor, status), page, limit)
}

// Transition chuyển trạng thái đơn theo bảng chuyển và quyền của actor
func (s *OrderService) Transition(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, to ordermodels.OrderStatus, note string) (*ordermodels.Order, error) {
	if to == ordermodels.StatusCancelled {
		return s.Cancel(ctx, actor, id, note)
	}
	if !s.machine.Known(to) {
		return nil, common.WithDetails(common.ErrInvalidTransition, map[string]string{"to": string(to)})
	}

	var from ordermodels.OrderStatus
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		if !o.CanView(actor) {
			return common.ErrForbidden
		}
		from = o.Status
		return o.Transition(s.machine, actor, to, note, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}

	audit(ctx, "order_transition", actor, o, map[string]interface{}{"from": from, "to": to, "note": note})
	logger.WithContext(ctx).WithFields(logrus.Fields{
		"orderId": o.ID.Hex(),
		"from":    from,
		"to":      to,
	}).Info("Chuyển trạng thái đơn hàng")

	var b notification.Batch
	participants(&b, actor, o, notification.Message{
		Type:      notification.TypeOrderStatus,
		Title:     "Cập nhật đơn hàng",
		Message:   fmt.Sprintf("Đơn %s chuyển sang %s", o.OrderNumber, to),
		Related:   orderRef(o),
		DedupeKey: fmt.Sprintf("order:%s:v%d", o.ID.Hex(), o.Version),
	})
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}

// Cancel hủy đơn và trả lại tồn kho trong cùng một đơn vị
func (s *OrderService) Cancel(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, reason string) (*ordermodels.Order, error) {
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		if !o.CanView(actor) {
			return common.ErrForbidden
		}
		return o.Cancel(s.machine, actor, reason, s.now())
	}, s.restoreStock)
	if err != nil {
		return nil, err
	}

	audit(ctx, "order_cancel", actor, o, map[string]interface{}{"reason": reason})
	var b notification.Batch
	participants(&b, actor, o, notification.Message{
		Type:      notification.TypeOrderCancelled,
		Title:     "Đơn hàng đã bị hủy",
		Message:   fmt.Sprintf("Đơn %s đã bị hủy: %s", o.OrderNumber, reason),
		Related:   orderRef(o),
		DedupeKey: "order:" + o.ID.Hex() + ":cancelled",
	})
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpUpdate, o)
	return o, nil
}

// restoreStock trả tồn kho từng dòng; sản phẩm đã bị xóa thì bỏ qua
func (s *OrderService) restoreStock(ctx context.Context, o *ordermodels.Order) error {
	for _, it := range o.Items {
		err := s.catalog.Increment(ctx, it.ProductID, it.Quantity)
		if errors.Is(err, common.ErrNotFound) {
			logger.WithContext(ctx).WithField("productId", it.ProductID.Hex()).Warn("Sản phẩm không còn, bỏ qua trả tồn kho")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Rate lưu đánh giá của khách
func (s *OrderService) Rate(ctx context.Context, actor authmodels.Actor, id primitive.ObjectID, rating int, comment string) (*ordermodels.Order, error) {
	o, err := s.mutate(ctx, id, func(o *ordermodels.Order) error {
		return o.Rate(actor, rating, comment, s.now())
	}, nil)
	if err != nil {
		return nil, err
	}
	audit(ctx, "order_rate", actor, o, map[string]interface{}{"rating": rating})
	return o, nil
}

// SyncPayment ghi tóm tắt thanh toán lên đơn; gọi trong transaction của payment service
func (s *OrderService) SyncPayment(ctx context.Context, id primitive.ObjectID, summary ordermodels.PaymentSummary) (*ordermodels.Order, error) {
	return s.mutate(ctx, id, func(o *ordermodels.Order) error {
		return o.ApplyPayment(summary, s.now())
	}, nil)
}

// RecordDriverLocation lưu vị trí cuối cùng của tài xế trên đơn; updatedAt lấy giờ server
func (s *OrderService) RecordDriverLocation(ctx context.Context, id primitive.ObjectID, p ordermodels.GeoPoint) error {
	return s.orders.SetDriverLocation(ctx, id, p, s.now().UnixMilli())
}
