package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng
type Configuration struct {
	InitMode  bool   `env:"INITMODE" envDefault:"false"` // Chế độ khởi tạo (nạp dữ liệu seed)
	Address   string `env:"ADDRESS" envDefault:"8080"`   // Cổng HTTP API
	JwtSecret string `env:"JWT_SECRET,required"`         // Bí mật ký JWT (HMAC)

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`        // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                // Tên cơ sở dữ liệu
	MongoDB_Transactions  bool   `env:"MONGODB_TRANSACTIONS" envDefault:"true"` // Tắt khi chạy MongoDB standalone (không có replica set)

	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// Realtime relay vị trí tài xế
	RelayAddress       string  `env:"RELAY_ADDRESS" envDefault:"8081"`
	RelayRatePerSecond float64 `env:"RELAY_RATE_PER_SECOND" envDefault:"2"` // Số frame vị trí mỗi giây cho mỗi tài xế
	RelayBurst         int     `env:"RELAY_BURST" envDefault:"5"`

	// Nghiệp vụ
	BidAcceptPolicy     string  `env:"BID_ACCEPT_POLICY" envDefault:"driver_self"` // driver_self | customer_select
	OrderDisputeEnabled bool    `env:"ORDER_DISPUTE_ENABLED" envDefault:"false"`   // Bật luồng delivered → disputed → resolved
	WalletMaxBalance    float64 `env:"WALLET_MAX_BALANCE" envDefault:"100000"`
	DefaultCurrency     string  `env:"DEFAULT_CURRENCY" envDefault:"EGP"`
	DefaultDeliveryFee  float64 `env:"DEFAULT_DELIVERY_FEE" envDefault:"15"`

	// Background jobs
	LateDeliveryIntervalSeconds int     `env:"LATE_DELIVERY_INTERVAL_SECONDS" envDefault:"60"`
	NotifyProcessIntervalSecond int     `env:"NOTIFY_PROCESS_INTERVAL_SECONDS" envDefault:"5"`
	NotifyRatePerSecond         float64 `env:"NOTIFY_RATE_PER_SECOND" envDefault:"20"`
	NotifyMaxRetries            int     `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`

	// SMTP cho kênh email (bỏ trống = tắt kênh email)
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPFromEmail string `env:"SMTP_FROM_EMAIL"`
	SMTPFromName  string `env:"SMTP_FROM_NAME" envDefault:"Soug Elwahah"`

	SeedFile string `env:"SEED_FILE" envDefault:"config/seed/catalog.yaml"` // File YAML dữ liệu danh mục mẫu

	// TLS/HTTPS Configuration
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", env))
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig đọc cấu hình từ file env (nếu có) rồi parse biến môi trường
func NewConfig() *Configuration {
	if envPath := getEnvPath(); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}
	if cfg.BidAcceptPolicy != "driver_self" && cfg.BidAcceptPolicy != "customer_select" {
		fmt.Printf("BID_ACCEPT_POLICY không hợp lệ: %s\n", cfg.BidAcceptPolicy)
		return nil
	}
	return &cfg
}
