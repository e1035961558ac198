package main

import (
	"context"
	"time"

	"soug_elwahah/config"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	deliverymodels "soug_elwahah/internal/api/delivery/models"
	notifmodels "soug_elwahah/internal/api/notification/models"
	ordermodels "soug_elwahah/internal/api/order/models"
	paymentmodels "soug_elwahah/internal/api/payment/models"
	walletmodels "soug_elwahah/internal/api/wallet/models"
	"soug_elwahah/internal/database"
	"soug_elwahah/internal/global"

	"github.com/sirupsen/logrus"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initConfig()           // Khởi tạo cấu hình server
	initValidator()        // Khởi tạo validator
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Stores = "catalog_stores"
	global.MongoDB_ColNames.Products = "catalog_products"
	global.MongoDB_ColNames.Orders = "orders"

	global.MongoDB_ColNames.Deliveries = "deliveries"
	global.MongoDB_ColNames.Wallets = "wallets"
	global.MongoDB_ColNames.Payments = "payments"
	global.MongoDB_ColNames.Counters = "counters"

	global.MongoDB_ColNames.Notifications = "notifications"
	global.MongoDB_ColNames.NotificationPreferences = "notification_preferences"
	global.MongoDB_ColNames.NotificationQueue = "notification_queue"
	global.MongoDB_ColNames.NotificationHistory = "notification_history"

	logrus.Info("Initialized collection names")
}

// collectionNames trả về tên mọi collection theo thứ tự khai báo
func collectionNames() []string {
	n := global.MongoDB_ColNames
	return []string{
		n.Stores, n.Products, n.Orders,
		n.Deliveries, n.Wallets, n.Payments, n.Counters,
		n.Notifications, n.NotificationPreferences, n.NotificationQueue, n.NotificationHistory,
	}
}

// Hàm khởi tạo validator; các tag enum lấy giá trị từ package models
func initValidator() {
	global.InitValidator()
	enums := map[string][]string{
		"order_status":    ordermodels.AllStatuses(),
		"payment_method":  paymentmodels.AllMethods(),
		"delivery_status": deliverymodels.AllDeliveryStatuses(),
	}
	for tag, values := range enums {
		if err := global.RegisterEnum(tag, values...); err != nil {
			logrus.Fatalf("Failed to register validator %s: %v", tag, err)
		}
	}
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database, collection và index
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := global.MongoDB_Session.Database(global.MongoDB_ServerConfig.MongoDB_DBName)
	if err := database.EnsureCollections(ctx, db, collectionNames()); err != nil {
		logrus.Fatalf("Failed to ensure collections: %v", err)
	}

	n := global.MongoDB_ColNames
	indexes := []struct {
		name  string
		model interface{}
	}{
		{n.Stores, catalogmodels.Store{}},
		{n.Products, catalogmodels.Product{}},
		{n.Orders, ordermodels.Order{}},
		{n.Deliveries, deliverymodels.Delivery{}},
		{n.Wallets, walletmodels.Wallet{}},
		{n.Payments, paymentmodels.Payment{}},
		{n.Counters, database.Counter{}},
		{n.Notifications, notifmodels.Notification{}},
		{n.NotificationPreferences, notifmodels.Preference{}},
		{n.NotificationQueue, notifmodels.QueueItem{}},
		{n.NotificationHistory, notifmodels.History{}},
	}
	for _, ix := range indexes {
		if err := database.CreateIndexes(ctx, db.Collection(ix.name), ix.model); err != nil {
			logrus.Errorf("Failed to create indexes for %s: %v", ix.name, err)
		}
	}
}
