package schema

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestInspectReadsLiveColumns(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE contracts (id VARCHAR(50) PRIMARY KEY, status VARCHAR(50), Second_Party VARCHAR(255))").Error)

	set := Inspect(context.Background(), db, "contracts")

	assert.True(t, set.Has("id"))
	assert.True(t, set.Has("second_party"))
	assert.False(t, set.Has("collector"))
	assert.Equal(t, []string{"id", "second_party", "status"}, set.Columns())
	assert.Equal(t, []string{"status", "second_party"}, set.Filter([]string{"status", "tax", "second_party"}))
}

func TestInspectMissingTableDegradesToEmptySet(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	set := Inspect(context.Background(), db, "contracts")

	assert.NotNil(t, set)
	assert.False(t, set.Has("id"))
	assert.Empty(t, set.Columns())
}

func TestNilColumnSet(t *testing.T) {
	var set *ColumnSet
	assert.False(t, set.Has("id"))
	assert.Empty(t, set.Filter([]string{"id"}))
	assert.Equal(t, "<nil>", set.String())
}

func TestColumnSetString(t *testing.T) {
	set := NewColumnSet("contracts", "Status", "id")
	assert.Equal(t, "contracts(id, status)", set.String())
}
