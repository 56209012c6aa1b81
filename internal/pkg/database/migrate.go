package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// Migration 版本化迁移。Optional 的迁移失败只记录日志，不阻止启动，下次启动会重试
type Migration struct {
	Version  int
	Name     string
	Optional bool
	Up       func(tx *gorm.DB) error
}

// Migrations 按版本顺序执行
func Migrations() []Migration {
	migrations := []Migration{
		{
			Version: 1,
			Name:    "create core tables",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&model.User{}, &model.Client{}, &model.ContractCore{}, &model.Term{}, &model.ContractAttachment{})
			},
		},
	}

	for i, col := range model.ContractOptionalColumns {
		col := col
		migrations = append(migrations, Migration{
			Version:  100 + i,
			Name:     "add contracts." + col.Name,
			Optional: true,
			Up: func(tx *gorm.DB) error {
				return addColumnIfMissing(tx, "contracts", col.Name, col.Definition)
			},
		})
	}
	return migrations
}

// Migrate 执行尚未应用的迁移
func Migrate(db *gorm.DB) error {
	return Apply(db, Migrations())
}

// Apply 执行给定迁移，已记录在 schema_migrations 中的版本会跳过
func Apply(db *gorm.DB, migrations []Migration) error {
	if err := db.AutoMigrate(&model.SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []model.SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("load schema_migrations: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		klog.V(6).Infof("applying migration %d: %s", m.Version, m.Name)
		if err := m.Up(db); err != nil {
			if m.Optional {
				klog.Warningf("optional migration %d (%s) failed, column set narrowed: %v", m.Version, m.Name, err)
				continue
			}
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		record := model.SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		klog.Infof("migration %d applied: %s", m.Version, m.Name)
	}
	return nil
}

func addColumnIfMissing(db *gorm.DB, table, column, definition string) error {
	if !db.Migrator().HasTable(table) {
		return errors.New("table " + table + " does not exist")
	}
	if db.Migrator().HasColumn(table, column) {
		return nil
	}
	// 列名与定义均来自固定列表
	return db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)).Error
}
