package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/weibaohui/contracthub/config"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/database"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/weibaohui/contracthub/internal/service"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "admin123", "admin password")
	displayName := flag.String("display-name", "Administrator", "display name")
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg := config.GetConfig()
	if cfg.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	if _, err := users.GetByUsername(ctx, *username); err == nil {
		klog.Infof("user %q already exists, skipping", *username)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}

	user, err := service.NewUserService(users).Create(ctx, &service.CreateUserRequest{
		Username:    *username,
		Password:    *password,
		Role:        model.RoleAdmin,
		DisplayName: *displayName,
	})
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	klog.Infof("created admin user %q (id=%d)", user.Username, user.ID)
}
