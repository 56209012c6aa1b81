package model

import "time"

// SchemaMigration 已执行的版本化迁移
type SchemaMigration struct {
	Version   int       `json:"version" gorm:"primaryKey;autoIncrement:false"`
	Name      string    `json:"name" gorm:"size:255"`
	AppliedAt time.Time `json:"applied_at"`
}
