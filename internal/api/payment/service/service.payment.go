package paymentsvc

import (
	"context"
	"fmt"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	"soug_elwahah/internal/api/events"
	notifmodels "soug_elwahah/internal/api/notification/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	paymentmodels "soug_elwahah/internal/api/payment/models"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/logger"
	"soug_elwahah/internal/notification"
	"soug_elwahah/internal/utility"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const paymentCounter = "payments"

// PaymentRepository là kho lưu các lần thanh toán
type PaymentRepository interface {
	Insert(ctx context.Context, p *paymentmodels.Payment) error
	Get(ctx context.Context, paymentID string) (*paymentmodels.Payment, error)
	ListByOrder(ctx context.Context, orderID primitive.ObjectID) ([]paymentmodels.Payment, error)
	Replace(ctx context.Context, p *paymentmodels.Payment, expectedVersion int64) error
}

// Sequencer cấp số thứ tự cho paymentId
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Orders là phần order service mà payment cần
type Orders interface {
	Load(ctx context.Context, id primitive.ObjectID) (*ordermodels.Order, error)
	SyncPayment(ctx context.Context, id primitive.ObjectID, summary ordermodels.PaymentSummary) (*ordermodels.Order, error)
}

// Ledger là phần wallet service mà payment cần
type Ledger interface {
	AddFunds(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, e walletmodels.Entry) (*walletmodels.Wallet, *walletmodels.Transaction, error)
	DeductFunds(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, e walletmodels.Entry) (*walletmodels.Wallet, *walletmodels.Transaction, error)
}

// PaymentService xử lý thanh toán và hoàn tiền.
// Thanh toán, ví và tóm tắt trên đơn được ghi trong cùng một đơn vị TxRunner.
type PaymentService struct {
	payments   PaymentRepository
	counters   Sequencer
	orders     Orders
	wallets    Ledger
	tx         database.TxRunner
	notifier   notification.Notifier
	compensate bool // runner không rollback thì tự hoàn tác bước ví đã ghi
	now        func() time.Time
	newTxID    func() string
}

func NewPaymentService(payments PaymentRepository, counters Sequencer, orders Orders, wallets Ledger, tx database.TxRunner, notifier notification.Notifier) *PaymentService {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &PaymentService{
		payments:   payments,
		counters:   counters,
		orders:     orders,
		wallets:    wallets,
		tx:         tx,
		notifier:   notifier,
		compensate: !database.Atomic(tx),
		now:        time.Now,
		newTxID:    utility.NewUUID,
	}
}

func audit(ctx context.Context, action string, actor authmodels.Actor, p *paymentmodels.Payment, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["orderId"] = p.OrderID.Hex()
	details["method"] = string(p.Method)
	details["amount"] = p.Amount
	logger.LogAction(ctx, logger.AuditAction{
		Action:       action,
		UserID:       actor.UserID.Hex(),
		Role:         string(actor.ActiveRole),
		ResourceType: "payment",
		ResourceID:   p.PaymentID,
		Details:      details,
	})
}

func (s *PaymentService) emit(ctx context.Context, op string, p *paymentmodels.Payment) {
	events.EmitDataChanged(ctx, events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.Payments,
		Operation:      op,
		Document:       *p,
	})
}

func paymentRef(p *paymentmodels.Payment) *walletmodels.Reference {
	return &walletmodels.Reference{Kind: walletmodels.RefPayment, ID: p.PaymentID}
}

// save ghi lần thanh toán với CAS; lỗi thì giữ nguyên version trên p
func (s *PaymentService) save(ctx context.Context, p *paymentmodels.Payment) error {
	expected := p.Version
	p.Version = expected + 1
	if err := s.payments.Replace(ctx, p, expected); err != nil {
		p.Version = expected
		return err
	}
	return nil
}

// ProcessPayment tạo một lần thanh toán cho đơn và xử lý theo phương thức
func (s *PaymentService) ProcessPayment(ctx context.Context, actor authmodels.Actor, orderID primitive.ObjectID, method paymentmodels.Method) (*paymentmodels.Payment, error) {
	o, err := s.orders.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Is(authmodels.RoleCustomer) && o.IsCustomer(actor.UserID)) {
		return nil, common.ErrForbidden
	}
	switch o.Payment.Status {
	case ordermodels.PaymentPaid, ordermodels.PaymentRefunded:
		return nil, common.WithDetails(common.ErrAlreadyPaid, map[string]string{"paymentId": o.Payment.PaymentID})
	case ordermodels.PaymentProcessing:
		return nil, common.WithDetails(common.ErrInvalidState, map[string]string{"payment": "đang chờ cổng thanh toán xác nhận"})
	}
	if o.Status == ordermodels.StatusCancelled || o.Status == ordermodels.StatusRefunded {
		return nil, common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(o.Status)})
	}

	previous, err := s.payments.ListByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	seq, err := s.counters.Next(ctx, paymentCounter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	p := paymentmodels.NewPayment(utility.NewPaymentID(now, seq), o, method, len(previous)+1, now)
	if err := s.payments.Insert(ctx, p); err != nil {
		return nil, err
	}

	switch method {
	case paymentmodels.MethodWallet:
		err = s.payWithWallet(ctx, actor, p)
	case paymentmodels.MethodCash:
		err = s.settle(ctx, p, func(p *paymentmodels.Payment) error {
			return p.MarkPaid(s.newTxID(), s.now())
		})
	default:
		err = s.settle(ctx, p, func(p *paymentmodels.Payment) error {
			txID := s.newTxID()
			return p.MarkProcessing(txID, simulatedGateway(p, txID, s.now()), s.now())
		})
	}
	if err != nil {
		s.fail(ctx, actor, p, err)
		return nil, err
	}

	audit(ctx, "payment_process", actor, p, map[string]interface{}{"status": string(p.Status), "attempt": p.Attempt})
	if p.Status == ordermodels.PaymentPaid {
		s.notifyPaid(ctx, actor, p)
	}
	s.emit(ctx, events.OpInsert, p)
	return p, nil
}

// simulatedGateway là phản hồi giả lập của cổng thanh toán, lưu nguyên văn
func simulatedGateway(p *paymentmodels.Payment, txID string, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"gateway":   "mock",
		"method":    string(p.Method),
		"reference": txID,
		"amount":    p.Amount,
		"currency":  p.Currency,
		"status":    "pending",
		"createdAt": now.UnixMilli(),
	}
}

// settle áp apply lên lần thanh toán và đồng bộ tóm tắt đơn trong một đơn vị
func (s *PaymentService) settle(ctx context.Context, p *paymentmodels.Payment, apply func(p *paymentmodels.Payment) error) error {
	orig := p.Clone()
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		*p = *orig.Clone()
		if err := apply(p); err != nil {
			return err
		}
		if err := s.save(txCtx, p); err != nil {
			return err
		}
		_, err := s.orders.SyncPayment(txCtx, p.OrderID, p.Summary())
		return err
	})
	if err != nil {
		s.rollback(ctx, p, orig)
	}
	return err
}

// payWithWallet trừ ví khách, ghi paid và tóm tắt đơn trong một đơn vị
func (s *PaymentService) payWithWallet(ctx context.Context, actor authmodels.Actor, p *paymentmodels.Payment) error {
	orig := p.Clone()
	var debited *walletmodels.Transaction
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		*p = *orig.Clone()
		debited = nil
		_, tx, err := s.wallets.DeductFunds(txCtx, actor, p.CustomerID, walletmodels.Entry{
			Type:        walletmodels.TxOrderPayment,
			Amount:      p.Amount,
			Description: "Thanh toán " + p.PaymentID,
			Reference:   paymentRef(p),
		})
		if err != nil {
			return err
		}
		debited = tx
		if err := p.MarkPaid(tx.TxID, s.now()); err != nil {
			return err
		}
		if err := s.save(txCtx, p); err != nil {
			return err
		}
		_, err = s.orders.SyncPayment(txCtx, p.OrderID, p.Summary())
		return err
	})
	if err != nil {
		if s.compensate && debited != nil {
			s.creditBack(ctx, actor, p.CustomerID, debited, p.PaymentID)
		}
		s.rollback(ctx, p, orig)
	}
	return err
}

// creditBack hoàn tác khoản trừ ví khi runner không rollback được
func (s *PaymentService) creditBack(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, debited *walletmodels.Transaction, paymentID string) {
	_, _, err := s.wallets.AddFunds(ctx, actor, userID, walletmodels.Entry{
		Type:        walletmodels.TxRefund,
		Amount:      debited.Amount,
		Description: "Hoàn tác thanh toán lỗi " + paymentID,
		Reference:   debited.Reference,
	})
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"paymentId": paymentID,
			"userId":    userID.Hex(),
			"amount":    debited.Amount,
		}).Error("Không hoàn tác được khoản trừ ví")
	}
}

// rollback đưa p về bản trước đơn vị lỗi; runner không rollback được mà p đã được ghi thì ghi lại bản cũ
func (s *PaymentService) rollback(ctx context.Context, p, orig *paymentmodels.Payment) {
	written := p.Version
	*p = *orig.Clone()
	if !s.compensate || written == orig.Version {
		return
	}
	p.Version = written + 1
	if err := s.payments.Replace(ctx, p, written); err != nil {
		p.Version = written
		logger.WithContext(ctx).WithError(err).WithField("paymentId", orig.PaymentID).Error("Không khôi phục được lần thanh toán sau lỗi")
	}
}

// fail đánh dấu lần thanh toán thất bại; tóm tắt trên đơn giữ nguyên
func (s *PaymentService) fail(ctx context.Context, actor authmodels.Actor, p *paymentmodels.Payment, cause error) {
	log := logger.WithContext(ctx).WithFields(logrus.Fields{
		"paymentId": p.PaymentID,
		"orderId":   p.OrderID.Hex(),
		"method":    p.Method,
	})
	if err := p.MarkFailed(cause.Error(), s.now()); err != nil {
		log.WithError(err).Warn("Không đánh dấu được lần thanh toán thất bại")
		return
	}
	if err := s.save(ctx, p); err != nil {
		log.WithError(err).Error("Không lưu được trạng thái thất bại của lần thanh toán")
		return
	}
	log.WithError(cause).Warn("Thanh toán thất bại")
	audit(ctx, "payment_failed", actor, p, map[string]interface{}{"reason": cause.Error()})
	s.notifier.Notify(ctx, notification.Message{
		RecipientID: p.CustomerID,
		Type:        notification.TypePaymentFailed,
		Title:       "Thanh toán thất bại",
		Message:     fmt.Sprintf("Thanh toán %s không thành công", p.PaymentID),
		Related:     notification.RelatedTo(notifmodels.RelatedOrder, p.OrderID),
		DedupeKey:   "payment:" + p.PaymentID + ":failed",
	})
}

func (s *PaymentService) notifyPaid(ctx context.Context, actor authmodels.Actor, p *paymentmodels.Payment) {
	var b notification.Batch
	b.Add(actor.UserID, notification.Message{
		RecipientID: p.StoreOwnerID,
		Type:        notification.TypePaymentPaid,
		Title:       "Đơn hàng đã được thanh toán",
		Message:     fmt.Sprintf("Nhận %.2f %s qua %s", p.Amount, p.Currency, p.Method),
		Related:     notification.RelatedTo(notifmodels.RelatedOrder, p.OrderID),
		DedupeKey:   "payment:" + p.PaymentID + ":paid",
	})
	b.Flush(ctx, s.notifier)
}

// ConfirmGateway là callback (giả lập) của cổng thanh toán cho lần đang processing
func (s *PaymentService) ConfirmGateway(ctx context.Context, actor authmodels.Actor, paymentID string, success bool, payload map[string]interface{}) (*paymentmodels.Payment, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != ordermodels.PaymentProcessing {
		return nil, common.WithDetails(common.ErrInvalidState, map[string]string{"status": string(p.Status)})
	}

	err = s.settle(ctx, p, func(p *paymentmodels.Payment) error {
		for k, v := range payload {
			if p.GatewayResponse == nil {
				p.GatewayResponse = map[string]interface{}{}
			}
			p.GatewayResponse[k] = v
		}
		if success {
			return p.MarkPaid("", s.now())
		}
		return p.MarkFailed("gateway declined", s.now())
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, "payment_confirm", actor, p, map[string]interface{}{"success": success})
	if p.Status == ordermodels.PaymentPaid {
		s.notifyPaid(ctx, actor, p)
	} else {
		s.notifier.Notify(ctx, notification.Message{
			RecipientID: p.CustomerID,
			Type:        notification.TypePaymentFailed,
			Title:       "Thanh toán thất bại",
			Message:     fmt.Sprintf("Cổng thanh toán từ chối %s", p.PaymentID),
			Related:     notification.RelatedTo(notifmodels.RelatedOrder, p.OrderID),
			DedupeKey:   "payment:" + p.PaymentID + ":failed",
		})
	}
	s.emit(ctx, events.OpUpdate, p)
	return p, nil
}

// ProcessRefund hoàn tiền một lần thanh toán đã paid (admin hoặc chủ cửa hàng của đơn).
// Thanh toán bằng ví thì cộng lại vào ví khách trong cùng đơn vị.
func (s *PaymentService) ProcessRefund(ctx context.Context, actor authmodels.Actor, paymentID string, amount float64, reason string) (*paymentmodels.Payment, error) {
	p, err := s.refundOnce(ctx, actor, paymentID, amount, reason)
	// Thua cuộc đua với một lần hoàn tiền khác: đọc lại một lần để trả lỗi nghiệp vụ đúng
	if common.Retryable(ctx, err) {
		p, err = s.refundOnce(ctx, actor, paymentID, amount, reason)
	}
	if err != nil {
		return nil, err
	}

	audit(ctx, "payment_refund", actor, p, map[string]interface{}{"refundAmount": p.Refund.RefundAmount, "reason": reason})
	var b notification.Batch
	b.Add(actor.UserID, notification.Message{
		RecipientID: p.CustomerID,
		Type:        notification.TypePaymentRefunded,
		Title:       "Đã hoàn tiền",
		Message:     fmt.Sprintf("Hoàn %.2f %s cho thanh toán %s", p.Refund.RefundAmount, p.Currency, p.PaymentID),
		Related:     notification.RelatedTo(notifmodels.RelatedPayment, p.ID),
		DedupeKey:   "payment:" + p.PaymentID + ":refunded",
	})
	b.Flush(ctx, s.notifier)
	s.emit(ctx, events.OpUpdate, p)
	return p, nil
}

func (s *PaymentService) refundOnce(ctx context.Context, actor authmodels.Actor, paymentID string, amount float64, reason string) (*paymentmodels.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Is(authmodels.RoleStore) && p.StoreOwnerID == actor.UserID) {
		return nil, common.ErrForbidden
	}

	orig := p.Clone()
	var credited *walletmodels.Transaction
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		*p = *orig.Clone()
		credited = nil
		refunded, err := p.ApplyRefund(actor.UserID, amount, reason, s.now())
		if err != nil {
			return err
		}
		if err := s.save(txCtx, p); err != nil {
			return err
		}
		if p.Method == paymentmodels.MethodWallet {
			_, tx, err := s.wallets.AddFunds(txCtx, actor, p.CustomerID, walletmodels.Entry{
				Type:        walletmodels.TxRefund,
				Amount:      refunded,
				Description: "Hoàn tiền " + p.PaymentID,
				Reference:   paymentRef(p),
			})
			if err != nil {
				return err
			}
			credited = tx
		}
		_, err = s.orders.SyncPayment(txCtx, p.OrderID, p.Summary())
		return err
	})
	if err != nil {
		if s.compensate && credited != nil {
			s.debitBack(ctx, actor, p.CustomerID, credited, p.PaymentID)
		}
		s.rollback(ctx, p, orig)
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) debitBack(ctx context.Context, actor authmodels.Actor, userID primitive.ObjectID, credited *walletmodels.Transaction, paymentID string) {
	_, _, err := s.wallets.DeductFunds(ctx, actor, userID, walletmodels.Entry{
		Type:        walletmodels.TxDebit,
		Amount:      credited.Amount,
		Description: "Hoàn tác hoàn tiền lỗi " + paymentID,
		Reference:   credited.Reference,
	})
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("paymentId", paymentID).Error("Không hoàn tác được khoản hoàn tiền vào ví")
	}
}

// canView: khách, chủ cửa hàng của đơn hoặc admin
func canView(actor authmodels.Actor, p *paymentmodels.Payment) bool {
	return actor.IsAdmin() ||
		(actor.Is(authmodels.RoleCustomer) && p.CustomerID == actor.UserID) ||
		(actor.Is(authmodels.RoleStore) && p.StoreOwnerID == actor.UserID)
}

func (s *PaymentService) Get(ctx context.Context, actor authmodels.Actor, paymentID string) (*paymentmodels.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, p) {
		return nil, common.ErrForbidden
	}
	return p, nil
}

// ListByOrder trả các lần thanh toán của đơn cho người liên quan
func (s *PaymentService) ListByOrder(ctx context.Context, actor authmodels.Actor, orderID primitive.ObjectID) ([]paymentmodels.Payment, error) {
	o, err := s.orders.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanView(actor) {
		return nil, common.ErrForbidden
	}
	list, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []paymentmodels.Payment{}
	}
	return list, nil
}
