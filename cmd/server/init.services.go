package main

import (
	"fmt"
	"time"

	"soug_elwahah/config"
	authrouter "soug_elwahah/internal/api/auth/router"
	authsvc "soug_elwahah/internal/api/auth/service"
	catalogrouter "soug_elwahah/internal/api/catalog/router"
	catalogsvc "soug_elwahah/internal/api/catalog/service"
	deliveryrouter "soug_elwahah/internal/api/delivery/router"
	deliverysvc "soug_elwahah/internal/api/delivery/service"
	"soug_elwahah/internal/api/events"
	"soug_elwahah/internal/api/middleware"
	notifmodels "soug_elwahah/internal/api/notification/models"
	notifrouter "soug_elwahah/internal/api/notification/router"
	notifsvc "soug_elwahah/internal/api/notification/service"
	ordermodels "soug_elwahah/internal/api/order/models"
	orderrouter "soug_elwahah/internal/api/order/router"
	ordersvc "soug_elwahah/internal/api/order/service"
	paymentrouter "soug_elwahah/internal/api/payment/router"
	paymentsvc "soug_elwahah/internal/api/payment/service"
	apirouter "soug_elwahah/internal/api/router"
	systemrouter "soug_elwahah/internal/api/system/router"
	walletrouter "soug_elwahah/internal/api/wallet/router"
	walletsvc "soug_elwahah/internal/api/wallet/service"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/notification"
	"soug_elwahah/internal/notification/channels"
	"soug_elwahah/internal/relay"
	"soug_elwahah/internal/worker"

	"github.com/gofiber/fiber/v3"
)

// app gom các service đã nối dây của process
type app struct {
	tokens     *authsvc.TokenService
	catalog    *catalogsvc.CatalogService
	orders     *ordersvc.OrderService
	deliveries *deliverysvc.DeliveryService
	wallets    *walletsvc.WalletService
	payments   *paymentsvc.PaymentService
	notices    *notifsvc.NotificationService

	processor  *notification.Processor
	lateWorker *worker.LateDeliveryWorker
	relay      *relay.Server
}

// buildApp nối repository Mongo, notifier và service theo cấu hình
func buildApp(cfg *config.Configuration) (*app, error) {
	tokens, err := authsvc.NewTokenService(cfg.JwtSecret)
	if err != nil {
		return nil, err
	}
	policy, err := ordermodels.NewBidAcceptancePolicy(cfg.BidAcceptPolicy)
	if err != nil {
		return nil, err
	}
	tx := database.NewTxRunner(global.MongoDB_Session, cfg.MongoDB_Transactions)

	// Thông báo: Dispatcher ghi outbox, Processor gửi theo kênh
	inbox, err := notifsvc.NewInboxMongoService()
	if err != nil {
		return nil, err
	}
	prefs, err := notifsvc.NewPreferenceMongoService()
	if err != nil {
		return nil, err
	}
	queue, err := notifsvc.NewQueueMongoService()
	if err != nil {
		return nil, err
	}
	history, err := notifsvc.NewHistoryMongoService()
	if err != nil {
		return nil, err
	}
	notifier := notification.NewDispatcher(prefs, queue, cfg.NotifyMaxRetries)

	senders := map[string]channels.Sender{
		notifmodels.ChannelInApp:   channels.NewInAppSender(inbox),
		notifmodels.ChannelWebhook: channels.NewWebhookSender(nil, 10*time.Second),
	}
	if cfg.SMTPHost != "" {
		senders[notifmodels.ChannelEmail] = channels.NewEmailSender(channels.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SMTPFromEmail,
			FromName:  cfg.SMTPFromName,
		})
	}
	processor := notification.NewProcessor(queue, history, senders, notification.ProcessorConfig{
		Interval:      time.Duration(cfg.NotifyProcessIntervalSecond) * time.Second,
		RatePerSecond: cfg.NotifyRatePerSecond,
	})

	// Catalog
	stores, err := catalogsvc.NewStoreMongoService()
	if err != nil {
		return nil, err
	}
	products, err := catalogsvc.NewProductMongoService()
	if err != nil {
		return nil, err
	}
	catalog := catalogsvc.NewCatalogService(stores, products, cfg.DefaultCurrency)

	// Giao hàng và đơn hàng
	deliveryRepo, err := deliverysvc.NewDeliveryMongoService()
	if err != nil {
		return nil, err
	}
	deliveries := deliverysvc.NewDeliveryService(deliveryRepo, notifier)

	orderRepo, err := ordersvc.NewOrderMongoService()
	if err != nil {
		return nil, err
	}
	orders := ordersvc.NewOrderService(orderRepo, catalog, deliveries, tx, notifier, ordersvc.OrderServiceConfig{
		Machine:            ordermodels.NewStatusMachine(cfg.OrderDisputeEnabled),
		Policy:             policy,
		DefaultDeliveryFee: cfg.DefaultDeliveryFee,
		DefaultCurrency:    cfg.DefaultCurrency,
	})

	// Ví và thanh toán
	walletRepo, err := walletsvc.NewWalletMongoService()
	if err != nil {
		return nil, err
	}
	wallets := walletsvc.NewWalletService(walletRepo, notifier, cfg.DefaultCurrency, cfg.WalletMaxBalance)

	paymentRepo, err := paymentsvc.NewPaymentMongoService()
	if err != nil {
		return nil, err
	}
	counterColl, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Counters)
	if !ok {
		return nil, fmt.Errorf("counters collection is not registered")
	}
	payments := paymentsvc.NewPaymentService(paymentRepo, database.NewCounterStore(counterColl), orders, wallets, tx, notifier)

	// Realtime relay nhận thay đổi đơn và chuyến giao qua bus sự kiện
	rl := relay.NewServer(tokens, orders, deliveries, cfg.RelayRatePerSecond, cfg.RelayBurst)
	events.OnDataChanged(rl.OnDataChanged)

	return &app{
		tokens:     tokens,
		catalog:    catalog,
		orders:     orders,
		deliveries: deliveries,
		wallets:    wallets,
		payments:   payments,
		notices:    notifsvc.NewNotificationService(inbox, prefs),
		processor:  processor,
		lateWorker: worker.NewLateDeliveryWorker(orderRepo, notifier, time.Duration(cfg.LateDeliveryIntervalSeconds)*time.Second, 100),
		relay:      rl,
	}, nil
}

// routes trả về middleware xác thực và danh sách đăng ký route của các domain
func (a *app) routes() (fiber.Handler, []apirouter.RegisterFunc) {
	return middleware.AuthMiddleware(a.tokens), []apirouter.RegisterFunc{
		systemrouter.Register,
		authrouter.Register,
		catalogrouter.Register(a.catalog),
		orderrouter.Register(a.orders),
		deliveryrouter.Register(a.deliveries),
		walletrouter.Register(a.wallets),
		paymentrouter.Register(a.payments),
		notifrouter.Register(a.notices),
	}
}
