package model

import "time"

// DefaultClientType 未指定类型时的客户类型
const DefaultClientType = "individual"

type Client struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:255;not null;index"`
	Type      string    `json:"type" gorm:"size:50;default:individual"`
	City      *string   `json:"city" gorm:"size:100"`
	District  *string   `json:"district" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}
