package repository

import (
	"context"

	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
)

type termRepository struct {
	db *gorm.DB
}

// NewTermRepository 创建条款仓储
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db}
}

func (r *termRepository) Create(ctx context.Context, term *model.Term) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *termRepository) Get(ctx context.Context, id uint) (*model.Term, error) {
	var term model.Term
	if err := r.db.WithContext(ctx).First(&term, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &term, nil
}

// List 新建的条款在前
func (r *termRepository) List(ctx context.Context) ([]model.Term, error) {
	var terms []model.Term
	err := r.db.WithContext(ctx).Order("id DESC").Find(&terms).Error
	return terms, err
}

func (r *termRepository) Update(ctx context.Context, term *model.Term) error {
	result := r.db.WithContext(ctx).
		Model(&model.Term{}).
		Where("id = ?", term.ID).
		Updates(map[string]any{
			"name":    term.Name,
			"type":    term.Type,
			"content": term.Content,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *termRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Term{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
