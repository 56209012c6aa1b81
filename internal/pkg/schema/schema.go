package schema

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// ColumnSet 启动时读取的表实际列集合，之后只读
type ColumnSet struct {
	table   string
	columns map[string]struct{}
}

// NewColumnSet 用给定列构造集合，列名大小写不敏感
func NewColumnSet(table string, columns ...string) *ColumnSet {
	set := &ColumnSet{
		table:   table,
		columns: make(map[string]struct{}, len(columns)),
	}
	for _, col := range columns {
		set.columns[strings.ToLower(col)] = struct{}{}
	}
	return set
}

// Inspect 查询表的实际列。查询失败时返回空集合，所有可选列判断都为 false
func Inspect(ctx context.Context, db *gorm.DB, table string) *ColumnSet {
	columnTypes, err := db.WithContext(ctx).Migrator().ColumnTypes(table)
	if err != nil {
		klog.Errorf("Inspect: failed to read columns of %s: %v", table, err)
		return NewColumnSet(table)
	}

	names := make([]string, 0, len(columnTypes))
	for _, ct := range columnTypes {
		names = append(names, ct.Name())
	}
	set := NewColumnSet(table, names...)
	klog.Infof("Available columns: %s", set)
	return set
}

// Has 判断列是否存在
func (s *ColumnSet) Has(column string) bool {
	if s == nil {
		return false
	}
	_, ok := s.columns[strings.ToLower(column)]
	return ok
}

// Filter 返回 candidates 中存在的列，保持原顺序
func (s *ColumnSet) Filter(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, col := range candidates {
		if s.Has(col) {
			out = append(out, col)
		}
	}
	return out
}

// Columns 返回排序后的列名
func (s *ColumnSet) Columns() []string {
	if s == nil {
		return nil
	}
	cols := make([]string, 0, len(s.columns))
	for col := range s.columns {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// String 形如 contracts(id, status)，用于启动日志
func (s *ColumnSet) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.table + "(" + strings.Join(s.Columns(), ", ") + ")"
}
