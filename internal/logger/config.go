package logger

import (
	"os"
	"strconv"
	"strings"
)

// LogConfig chứa cấu hình cho hệ thống logging
type LogConfig struct {
	// trace, debug, info, warn, error, fatal
	Level string
	// json, text
	Format string
	// file, stdout, both
	Output string

	MaxSize    int  // MB
	MaxBackups int  // Số file cũ giữ lại
	MaxAge     int  // Số ngày
	Compress   bool // Nén file cũ

	LogPath   string
	AppFile   string
	AuditFile string
	ErrorFile string

	// Danh sách module được phép ghi log, "*" hoặc rỗng = tất cả
	FilterModules string
}

// DefaultConfig trả về cấu hình mặc định, override bằng biến môi trường LOG_*
func DefaultConfig() *LogConfig {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	cfg := &LogConfig{
		Level:      "info",
		Format:     "json",
		Output:     "both",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
		LogPath:    "./logs",
		AppFile:    "app.log",
		AuditFile:  "audit.log",
		ErrorFile:  "error.log",
	}
	if env == "development" {
		cfg.Level = "debug"
		cfg.Format = "text"
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v, err := strconv.Atoi(os.Getenv("LOG_MAX_SIZE")); err == nil && v > 0 {
		cfg.MaxSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("LOG_MAX_BACKUPS")); err == nil && v >= 0 {
		cfg.MaxBackups = v
	}
	if v, err := strconv.Atoi(os.Getenv("LOG_MAX_AGE")); err == nil && v > 0 {
		cfg.MaxAge = v
	}
	if v, err := strconv.ParseBool(os.Getenv("LOG_COMPRESS")); err == nil {
		cfg.Compress = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	cfg.FilterModules = os.Getenv("LOG_FILTER_MODULES")

	return cfg
}
