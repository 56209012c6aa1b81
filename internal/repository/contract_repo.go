package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/schema"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

const (
	defaultListLimit = 100
	searchListLimit  = 500
)

var (
	dateColumns  = map[string]bool{"from_date": true, "to_date": true}
	moneyColumns = map[string]bool{"monthly_fee": true, "total_price": true}
)

// contractSelectColumns 列表和详情查询的固定列
var contractSelectColumns = []string{
	"c.id", "c.client_id", "cl.name AS client_name", "c.service_name",
	"c.from_date", "c.to_date", "c.total_price", "c.monthly_fee", "c.manager", "c.status",
	"c.terms", "c.sign_method", "c.city", "c.district", "c.location",
	"c.container_type", "c.container_location", "c.pickup_location", "c.created_at",
}

type contractRepository struct {
	db      *gorm.DB
	columns *schema.ColumnSet
}

// NewContractRepository columns 为启动时检测到的 contracts 实际列
func NewContractRepository(db *gorm.DB, columns *schema.ColumnSet) ContractRepository {
	return &contractRepository{db: db, columns: columns}
}

// writableColumns 固定列加上实际存在的可选列
func (r *contractRepository) writableColumns() []string {
	cols := make([]string, 0, len(model.ContractColumns)+len(model.ContractOptionalColumns))
	cols = append(cols, model.ContractColumns...)
	cols = append(cols, r.columns.Filter(model.OptionalColumnNames())...)
	return cols
}

func (r *contractRepository) selectColumns() []string {
	cols := make([]string, 0, len(contractSelectColumns)+len(model.ContractOptionalColumns))
	cols = append(cols, contractSelectColumns...)
	for _, col := range r.columns.Filter(model.OptionalColumnNames()) {
		cols = append(cols, "c."+col)
	}
	return cols
}

func (r *contractRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("contracts AS c").
		Select(strings.Join(r.selectColumns(), ", ")).
		Joins("LEFT JOIN clients cl ON c.client_id = cl.id")
}

func (r *contractRepository) NextID(ctx context.Context, year int) string {
	prefix := fmt.Sprintf("CN-%d-", year)

	var ids []string
	err := r.db.WithContext(ctx).
		Table("contracts").
		Where("id LIKE ?", prefix+"%").
		Pluck("id", &ids).Error
	if err != nil {
		klog.Warningf("NextID: failed to scan existing ids, falling back to timestamp: %v", err)
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixMilli())
	}

	var max int64
	for _, id := range ids {
		n, err := strconv.ParseInt(strings.TrimPrefix(id, prefix), 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, max+1)
}

func (r *contractRepository) Create(ctx context.Context, id string, fields map[string]any) error {
	row := map[string]any{
		"id":          id,
		"status":      model.ContractStatusPending,
		"monthly_fee": decimal.Zero,
		"total_price": decimal.Zero,
		"created_at":  time.Now(),
	}
	for _, col := range r.writableColumns() {
		raw, ok := fields[col]
		if !ok {
			continue
		}
		value, err := normalizeValue(col, raw)
		if err != nil {
			return err
		}
		if value == nil {
			if _, hasDefault := row[col]; hasDefault {
				continue
			}
		}
		row[col] = value
	}

	err := r.db.WithContext(ctx).Table("contracts").Create(row).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("contract %s: %w", id, ErrDuplicateID)
	}
	return err
}

func (r *contractRepository) Update(ctx context.Context, id string, fields map[string]any) (int, error) {
	changes := make(map[string]any)
	for _, col := range r.writableColumns() {
		raw, ok := fields[col]
		if !ok {
			continue
		}
		value, err := normalizeValue(col, raw)
		if err != nil {
			return 0, err
		}
		changes[col] = value
	}
	if len(changes) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Table("contracts").Where("id = ?", id).Updates(changes).Error
	if err != nil {
		return 0, err
	}
	return len(changes), nil
}

func (r *contractRepository) Get(ctx context.Context, id string) (*model.Contract, error) {
	var contracts []model.Contract
	err := r.baseQuery(ctx).Where("c.id = ?", id).Limit(1).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, ErrNotFound
	}
	return &contracts[0], nil
}

func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	query := r.baseQuery(ctx)

	if filter.Status != "" {
		query = query.Where("c.status = ?", filter.Status)
	}

	q := strings.TrimSpace(filter.Query)
	hasSecondParty := r.columns.Has("second_party")
	if q != "" {
		like := "%" + q + "%"
		if hasSecondParty {
			query = query.Where("(c.id LIKE ? OR cl.name LIKE ? OR c.second_party LIKE ?)", like, like, like)
		} else {
			query = query.Where("(c.id LIKE ? OR cl.name LIKE ?)", like, like)
		}

		// 搜索时按乙方名称字母序
		if hasSecondParty {
			query = query.Order("c.second_party ASC").Order("c.created_at DESC")
		} else {
			query = query.Order("cl.name ASC").Order("c.created_at DESC")
		}
		query = query.Limit(searchListLimit)
	} else {
		query = query.Order("c.created_at DESC").Limit(defaultListLimit)
	}

	var contracts []model.Contract
	if err := query.Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *contractRepository) ListAll(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.baseQuery(ctx).Order("c.created_at DESC").Scan(&contracts).Error
	return contracts, err
}

func (r *contractRepository) Delete(ctx context.Context, id string, removeFiles func() error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", id).Delete(&model.ContractAttachment{}).Error; err != nil {
			return err
		}

		if removeFiles != nil {
			if err := removeFiles(); err != nil {
				klog.Warningf("Delete contract %s: failed to remove files: %v", id, err)
			}
		}

		result := tx.Where("id = ?", id).Delete(&model.ContractCore{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *contractRepository) MarkSigned(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Table("contracts").
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      model.ContractStatusActive,
			"sign_method": model.SignMethodElectronic,
		}).Error
}

// normalizeValue 只接受标量；空字符串写入 NULL，日期和金额做格式校验
func normalizeValue(column string, raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		if dateColumns[column] {
			d, err := model.ParseDate(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
			}
			return d, nil
		}
		if moneyColumns[column] {
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
			}
			return d, nil
		}
		return v, nil
	case float64:
		if moneyColumns[column] {
			return decimal.NewFromFloat(v), nil
		}
		if dateColumns[column] {
			return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
		}
		return v, nil
	case json.Number:
		if moneyColumns[column] {
			d, err := decimal.NewFromString(v.String())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
			}
			return d, nil
		}
		return v.String(), nil
	case int, int64:
		if dateColumns[column] {
			return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
		}
		return v, nil
	case bool:
		if dateColumns[column] || moneyColumns[column] {
			return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s: %w", column, ErrInvalidValue)
	}
}
