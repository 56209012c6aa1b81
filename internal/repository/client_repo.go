package repository

import (
	"context"
	"fmt"

	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	err := r.db.WithContext(ctx).Create(client).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("client %s: %w", client.ID, ErrDuplicateID)
	}
	return err
}

func (r *clientRepository) Get(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// List 按名称排序
func (r *clientRepository) List(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clients).Error
	return clients, err
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	result := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", client.ID).
		Updates(map[string]any{
			"name":     client.Name,
			"type":     client.Type,
			"city":     client.City,
			"district": client.District,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	// MySQL 对未变化的行返回 0，需再确认是否存在
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", client.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Client{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
