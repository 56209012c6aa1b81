package repository

import (
	"context"

	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
)

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建合同附件仓储
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *model.ContractAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// ListByContract 按创建顺序返回
func (r *attachmentRepository) ListByContract(ctx context.Context, contractID string) ([]model.ContractAttachment, error) {
	var attachments []model.ContractAttachment
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&attachments).Error
	return attachments, err
}
