package repository

import (
	"context"
	"fmt"

	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/schema"
	"gorm.io/gorm"
)

// reportColumns 允许分组的列
var reportColumns = map[string]bool{
	"collector":    true,
	"manager":      true,
	"second_party": true,
}

type reportRepository struct {
	db        *gorm.DB
	columns   *schema.ColumnSet
	contracts *contractRepository
}

// NewReportRepository 创建报表仓储，分组列不存在时返回空结果
func NewReportRepository(db *gorm.DB, columns *schema.ColumnSet) ReportRepository {
	return &reportRepository{
		db:        db,
		columns:   columns,
		contracts: &contractRepository{db: db, columns: columns},
	}
}

func (r *reportRepository) checkColumn(column string) (bool, error) {
	if !reportColumns[column] {
		return false, fmt.Errorf("report column %q: %w", column, ErrInvalidValue)
	}
	// manager 是固定列；可选列在库里缺失时视为没有数据
	if column == "manager" {
		return true, nil
	}
	return r.columns.Has(column), nil
}

func (r *reportRepository) Summary(ctx context.Context, column string) ([]model.GroupStats, error) {
	ok, err := r.checkColumn(column)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.GroupStats{}, nil
	}

	query := fmt.Sprintf(`SELECT %[1]s AS name,
		COUNT(*) AS contract_count,
		SUM(total_price) AS total_value,
		SUM(monthly_fee) AS monthly_revenue,
		AVG(total_price) AS avg_contract_value,
		COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_count
	FROM contracts
	WHERE %[1]s IS NOT NULL AND %[1]s != ''
	GROUP BY %[1]s
	ORDER BY contract_count DESC, name ASC`, column)

	stats := make([]model.GroupStats, 0)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *reportRepository) Detail(ctx context.Context, column, name string) (*model.EntityStats, []model.Contract, error) {
	ok, err := r.checkColumn(column)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return &model.EntityStats{}, []model.Contract{}, nil
	}

	query := fmt.Sprintf(`SELECT COUNT(*) AS total_contracts,
		COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_contracts,
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_contracts,
		COALESCE(SUM(CASE WHEN status = 'expired' THEN 1 ELSE 0 END), 0) AS expired_contracts,
		SUM(total_price) AS total_value,
		SUM(monthly_fee) AS monthly_revenue,
		AVG(total_price) AS avg_contract_value
	FROM contracts
	WHERE %s = ?`, column)

	var stats model.EntityStats
	if err := r.db.WithContext(ctx).Raw(query, name).Scan(&stats).Error; err != nil {
		return nil, nil, err
	}

	contracts := make([]model.Contract, 0)
	err = r.contracts.baseQuery(ctx).
		Where(fmt.Sprintf("c.%s = ?", column), name).
		Order("c.created_at DESC").
		Scan(&contracts).Error
	if err != nil {
		return nil, nil, err
	}
	return &stats, contracts, nil
}
