package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 合同状态
const (
	ContractStatusPending = "pending"
	ContractStatusActive  = "active"
	ContractStatusExpired = "expired"
)

// 签署方式
const (
	SignMethodManual     = "manual"
	SignMethodElectronic = "electronic"
)

// ContractCore contracts 表的固定列，由迁移创建
type ContractCore struct {
	ID                string          `gorm:"primaryKey;size:50"`
	ClientID          *string         `gorm:"size:64;index"`
	ServiceName       *string         `gorm:"size:255"`
	FromDate          *Date           `gorm:"type:date"`
	ToDate            *Date           `gorm:"type:date"`
	MonthlyFee        decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Manager           *string         `gorm:"size:255;index"`
	Status            string          `gorm:"size:50;default:pending;index"`
	Terms             *string         `gorm:"type:text"`
	SignMethod        *string         `gorm:"size:50;default:manual"`
	City              *string         `gorm:"size:100"`
	District          *string         `gorm:"size:100"`
	Location          *string         `gorm:"size:255"`
	ContainerType     *string         `gorm:"size:100"`
	ContainerLocation *string         `gorm:"size:255"`
	PickupLocation    *string         `gorm:"size:255"`
	CreatedAt         time.Time       `gorm:"index"`
}

func (ContractCore) TableName() string {
	return "contracts"
}

// Contract 合同读模型。可选列在当前库结构中不存在时保持为 nil，JSON 中省略
type Contract struct {
	ID                string              `json:"id"`
	ClientID          *string             `json:"client_id"`
	ClientName        *string             `json:"client_name" gorm:"column:client_name"`
	ServiceName       *string             `json:"service_name"`
	FromDate          *Date               `json:"from_date"`
	ToDate            *Date               `json:"to_date"`
	MonthlyFee        decimal.NullDecimal `json:"monthly_fee"`
	TotalPrice        decimal.NullDecimal `json:"total_price"`
	Manager           *string             `json:"manager"`
	Status            string              `json:"status"`
	Terms             *string             `json:"terms"`
	SignMethod        *string             `json:"sign_method"`
	City              *string             `json:"city"`
	District          *string             `json:"district"`
	Location          *string             `json:"location"`
	ContainerType     *string             `json:"container_type"`
	ContainerLocation *string             `json:"container_location"`
	PickupLocation    *string             `json:"pickup_location"`
	CreatedAt         *time.Time          `json:"created_at"`

	Duration         *string `json:"duration,omitempty"`
	PaymentType      *string `json:"payment_type,omitempty"`
	FirstParty       *string `json:"first_party,omitempty"`
	SecondParty      *string `json:"second_party,omitempty"`
	ClientEmail      *string `json:"client_email,omitempty"`
	ClientPhone      *string `json:"client_phone,omitempty"`
	Collector        *string `json:"collector,omitempty"`
	Tax              *string `json:"tax,omitempty"`
	ParentContractID *string `json:"parent_contract_id,omitempty"`
}

// ContractColumns 固定列，创建和更新时允许写入（id 只在创建时写入）
var ContractColumns = []string{
	"client_id", "service_name", "from_date", "to_date",
	"monthly_fee", "total_price", "manager", "status",
	"terms", "sign_method", "city", "district", "location",
	"container_type", "container_location", "pickup_location",
}

// OptionalColumn 可能不存在于部署库结构中的列
type OptionalColumn struct {
	Name       string
	Definition string
}

// ContractOptionalColumns 可选列及其补齐时使用的列定义
var ContractOptionalColumns = []OptionalColumn{
	{Name: "duration", Definition: "VARCHAR(50) DEFAULT 'yearly'"},
	{Name: "payment_type", Definition: "VARCHAR(50) DEFAULT 'annual'"},
	{Name: "first_party", Definition: "VARCHAR(255)"},
	{Name: "second_party", Definition: "VARCHAR(255)"},
	{Name: "client_email", Definition: "VARCHAR(255)"},
	{Name: "client_phone", Definition: "VARCHAR(50)"},
	{Name: "collector", Definition: "VARCHAR(255)"},
	{Name: "tax", Definition: "VARCHAR(50) DEFAULT '15%'"},
	{Name: "parent_contract_id", Definition: "VARCHAR(50) DEFAULT NULL"},
}

// OptionalColumnNames 返回可选列名
func OptionalColumnNames() []string {
	names := make([]string, 0, len(ContractOptionalColumns))
	for _, col := range ContractOptionalColumns {
		names = append(names, col.Name)
	}
	return names
}

// GroupStats 报表中按负责人/收款人/乙方分组的统计
type GroupStats struct {
	Name             string              `json:"name"`
	ContractCount    int64               `json:"contract_count"`
	TotalValue       decimal.NullDecimal `json:"total_value"`
	MonthlyRevenue   decimal.NullDecimal `json:"monthly_revenue"`
	AvgContractValue decimal.NullDecimal `json:"avg_contract_value"`
	ActiveCount      int64               `json:"active_count"`
}

// KeyedBy 以分组列名作为名称字段的 key，例如 {"manager": "omar", ...}
func (g GroupStats) KeyedBy(column string) map[string]any {
	return map[string]any{
		column:               g.Name,
		"contract_count":     g.ContractCount,
		"total_value":        g.TotalValue,
		"monthly_revenue":    g.MonthlyRevenue,
		"avg_contract_value": g.AvgContractValue,
		"active_count":       g.ActiveCount,
	}
}

// EntityStats 单个负责人/收款人/乙方的合同统计
type EntityStats struct {
	TotalContracts   int64               `json:"total_contracts"`
	ActiveContracts  int64               `json:"active_contracts"`
	PendingContracts int64               `json:"pending_contracts"`
	ExpiredContracts int64               `json:"expired_contracts"`
	TotalValue       decimal.NullDecimal `json:"total_value"`
	MonthlyRevenue   decimal.NullDecimal `json:"monthly_revenue"`
	AvgContractValue decimal.NullDecimal `json:"avg_contract_value"`
}
