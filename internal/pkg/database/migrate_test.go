package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), 0)
	require.NoError(t, err)
	return db
}

func TestMigrateCreatesTablesAndOptionalColumns(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "clients", "contracts", "terms", "contract_attachments", "schema_migrations"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	for _, col := range model.OptionalColumnNames() {
		assert.True(t, db.Migrator().HasColumn("contracts", col), "missing column %s", col)
	}

	var count int64
	require.NoError(t, db.Model(&model.SchemaMigration{}).Count(&count).Error)
	assert.Equal(t, int64(len(Migrations())), count)

	// 再次执行不应重复应用
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Model(&model.SchemaMigration{}).Count(&count).Error)
	assert.Equal(t, int64(len(Migrations())), count)
}

func TestMigrateUpgradesLegacyContractsTable(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Exec("CREATE TABLE contracts (id VARCHAR(50) PRIMARY KEY, client_id VARCHAR(64), status VARCHAR(50), second_party VARCHAR(255))").Error)

	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasColumn("contracts", "collector"))
	assert.True(t, db.Migrator().HasColumn("contracts", "second_party"))
	assert.True(t, db.Migrator().HasColumn("contracts", "service_name"))
}

func TestApplyOptionalFailureIsNotFatal(t *testing.T) {
	db := openMemory(t)
	calls := 0
	migrations := []Migration{
		{Version: 1, Name: "ok", Up: func(tx *gorm.DB) error { calls++; return nil }},
		{Version: 2, Name: "broken", Optional: true, Up: func(tx *gorm.DB) error { return errors.New("boom") }},
	}

	require.NoError(t, Apply(db, migrations))
	assert.Equal(t, 1, calls)

	var versions []int
	require.NoError(t, db.Model(&model.SchemaMigration{}).Pluck("version", &versions).Error)
	assert.Equal(t, []int{1}, versions)
}

func TestApplyRequiredFailureStopsBoot(t *testing.T) {
	db := openMemory(t)
	migrations := []Migration{
		{Version: 1, Name: "broken", Up: func(tx *gorm.DB) error { return errors.New("boom") }},
	}
	assert.Error(t, Apply(db, migrations))
}
