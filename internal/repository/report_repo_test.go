package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/contracthub/internal/pkg/schema"
)

func TestReportSummaryAndDetail(t *testing.T) {
	db, contracts := setupContracts(t)
	ctx := context.Background()

	seed := []map[string]any{
		{"collector": "omar", "manager": "sara", "total_price": "1000", "monthly_fee": "100", "status": "active"},
		{"collector": "omar", "manager": "sara", "total_price": "500", "monthly_fee": "50", "status": "pending"},
		{"collector": "ali", "manager": "sara", "total_price": "300", "monthly_fee": "30", "status": "expired"},
		{"collector": "", "manager": "", "total_price": "1"},
	}
	for _, fields := range seed {
		require.NoError(t, contracts.Create(ctx, contracts.NextID(ctx, 2024), fields))
	}

	repo := NewReportRepository(db, schema.Inspect(ctx, db, "contracts"))

	summary, err := repo.Summary(ctx, "collector")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "omar", summary[0].Name)
	assert.Equal(t, int64(2), summary[0].ContractCount)
	assert.Equal(t, int64(1), summary[0].ActiveCount)
	assert.True(t, summary[0].TotalValue.Decimal.Equal(decimal.NewFromInt(1500)))
	assert.True(t, summary[0].MonthlyRevenue.Decimal.Equal(decimal.NewFromInt(150)))

	stats, list, err := repo.Detail(ctx, "manager", "sara")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalContracts)
	assert.Equal(t, int64(1), stats.ActiveContracts)
	assert.Equal(t, int64(1), stats.PendingContracts)
	assert.Equal(t, int64(1), stats.ExpiredContracts)
	assert.True(t, stats.TotalValue.Decimal.Equal(decimal.NewFromInt(1800)))
	assert.Len(t, list, 3)

	_, err = repo.Summary(ctx, "status; DROP TABLE contracts")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestReportMissingOptionalColumnIsEmpty(t *testing.T) {
	db := setupDB(t)
	repo := NewReportRepository(db, schema.NewColumnSet("contracts", "id", "manager"))

	summary, err := repo.Summary(context.Background(), "second_party")
	require.NoError(t, err)
	assert.Empty(t, summary)

	stats, list, err := repo.Detail(context.Background(), "collector", "omar")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalContracts)
	assert.Empty(t, list)
}
