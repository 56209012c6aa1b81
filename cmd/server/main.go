package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"

	"github.com/weibaohui/contracthub/config"
	"github.com/weibaohui/contracthub/internal/eventbus"
	"github.com/weibaohui/contracthub/internal/handler"
	"github.com/weibaohui/contracthub/internal/pkg/cache"
	"github.com/weibaohui/contracthub/internal/pkg/database"
	"github.com/weibaohui/contracthub/internal/pkg/metrics"
	"github.com/weibaohui/contracthub/internal/pkg/schema"
	"github.com/weibaohui/contracthub/internal/pkg/storage"
	"github.com/weibaohui/contracthub/internal/realtime"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/weibaohui/contracthub/internal/router"
	"github.com/weibaohui/contracthub/internal/service"
	"github.com/weibaohui/contracthub/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.PublicDir, 0755); err != nil {
		log.Fatalf("Failed to create public directory: %v", err)
	}

	if cfg.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// 初始化数据库，迁移失败时退出
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	columns := schema.Inspect(ctx, db, "contracts")
	cancel()

	// 初始化 Repository
	contractRepo := repository.NewContractRepository(db, columns)
	clientRepo := repository.NewClientRepository(db)
	userRepo := repository.NewUserRepository(db)
	termRepo := repository.NewTermRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	reportRepo := repository.NewReportRepository(db, columns)

	store, err := storage.NewStore(cfg.Storage.UploadDir, cfg.Storage.MaxFileSize)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	hub := realtime.NewHub(func(online int) {
		metrics.OnlineUsers.Set(float64(online))
	})
	bus := eventbus.NewContractEventBus()

	// Redis 不可用时报表不缓存
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 3*time.Second)
	redisClient := cache.Connect(redisCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	redisCancel()
	reportCache := cache.NewRedisCache(redisClient, "contracthub:reports:", cfg.Redis.TTL)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	contractService := service.NewContractService(contractRepo, store, bus, authService)
	attachmentService := service.NewAttachmentService(attachmentRepo, contractRepo, store)
	clientService := service.NewClientService(clientRepo)
	userService := service.NewUserService(userRepo)
	termService := service.NewTermService(termRepo)
	reportService := service.NewReportService(reportRepo, reportCache)

	subscriber.NewNotifySubscriber(hub).Register(bus)
	subscriber.NewReportCacheSubscriber(reportService).Register(bus)

	// 初始化 Handler
	r := router.Setup(cfg, authService, router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Contract:     handler.NewContractHandler(contractService, cfg.Storage.MaxFileSize),
		Attachment:   handler.NewAttachmentHandler(attachmentService, cfg.Storage.MaxFileSize),
		Client:       handler.NewClientHandler(clientService),
		User:         handler.NewUserHandler(userService),
		Term:         handler.NewTermHandler(termService),
		Report:       handler.NewReportHandler(reportService),
		Notification: handler.NewNotificationHandler(hub),
		Health:       handler.NewHealthHandler(db),
		WS:           handler.NewWSHandler(hub),
	})

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
