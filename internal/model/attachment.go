package model

import "time"

const (
	FieldTypeText  = "text"
	FieldTypeImage = "image"
)

// ContractAttachment 合同附件，每个字段一行
type ContractAttachment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContractID    string    `json:"contract_id" gorm:"size:50;not null;index:idx_contract_id"`
	FieldName     string    `json:"field_name" gorm:"size:100;not null"`
	FieldType     string    `json:"field_type" gorm:"size:10;not null"` // text, image
	TextValue     *string   `json:"text_value" gorm:"type:text"`
	ImageFilename *string   `json:"image_filename" gorm:"size:255"`
	IsFromParent  bool      `json:"is_from_parent" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
}
