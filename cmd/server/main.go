package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"soug_elwahah/internal/database"
	"soug_elwahah/internal/global"
	"soug_elwahah/internal/logger"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"
)

// initLogger khởi tạo logger cho toàn bộ ứng dụng (cấu hình qua biến môi trường LOG_*)
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// resolvePath đổi đường dẫn tương đối thành đường dẫn tính từ thư mục gốc dự án (nơi có config/env)
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	currentDir, err := os.Getwd()
	if err != nil {
		return path
	}
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "config", "env")); err == nil {
			return filepath.Join(currentDir, path)
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return path
		}
		currentDir = parentDir
	}
}

// serveAPI chạy Fiber (HTTP hoặc TLS) tới khi ctx bị hủy
func serveAPI(ctx context.Context, app *fiber.App) error {
	cfg := global.MongoDB_ServerConfig
	address := ":" + cfg.Address
	log := logger.GetAppLogger()

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Fiber shutdown error")
		}
	}()

	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		certPath := resolvePath(cfg.TLSCertFile)
		keyPath := resolvePath(cfg.TLSKeyFile)
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		ln, err := net.Listen("tcp", address)
		if err != nil {
			return fmt.Errorf("create listener: %w", err)
		}
		tlsListener := tls.NewListener(ln, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
		log.WithFields(map[string]interface{}{
			"address": address,
			"cert":    certPath,
		}).Info("Starting server with HTTPS/TLS")
		return app.Listener(tlsListener)
	}

	log.WithFields(map[string]interface{}{
		"address":  address,
		"protocol": "HTTP",
	}).Info("Starting server with HTTP")
	return app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// Hàm main
func main() {
	initLogger()
	defer logger.Shutdown()

	InitGlobal()
	InitRegistry()

	cfg := global.MongoDB_ServerConfig
	log := logger.GetAppLogger()

	a, err := buildApp(cfg)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InitMode {
		InitDefaultData(ctx, a.catalog, cfg.SeedFile)
	}

	auth, regs := a.routes()
	api, err := InitFiberApp(auth, regs...)
	if err != nil {
		log.Fatalf("Failed to setup routes: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveAPI(gctx, api) })
	g.Go(func() error { return a.relay.Run(gctx, cfg.RelayAddress) })
	g.Go(func() error { return a.processor.Start(gctx) })
	g.Go(func() error {
		a.lateWorker.Start(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = database.CloseInstance(shutdownCtx, global.MongoDB_Session)
	log.Info("Server stopped")
}
