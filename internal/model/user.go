package model

import "time"

// Role 用户角色，取值固定
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleSigner Role = "signer"
)

// Valid 判断角色是否在允许集合内
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleSigner:
		return true
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         Role      `json:"role" gorm:"size:20;not null;default:staff"`
	DisplayName  string    `json:"display_name" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
