package service

import (
	"context"
	"fmt"

	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/cache"
	"github.com/weibaohui/contracthub/internal/repository"
	"k8s.io/klog/v2"
)

// ReportKind 报表类型
type ReportKind string

const (
	ReportCollectors ReportKind = "collectors"
	ReportMarketers  ReportKind = "marketers"
	ReportClients    ReportKind = "clients"
)

type reportTarget struct {
	column     string
	entityType string
}

var reportTargets = map[ReportKind]reportTarget{
	ReportCollectors: {column: "collector", entityType: "collector"},
	ReportMarketers:  {column: "manager", entityType: "marketer"},
	ReportClients:    {column: "second_party", entityType: "client"},
}

// Column 报表分组使用的 contracts 列
func (k ReportKind) Column() string {
	return reportTargets[k].column
}

// ReportDetail 单个对象的报表
type ReportDetail struct {
	EntityName string             `json:"entityName"`
	EntityType string             `json:"entityType"`
	Statistics *model.EntityStats `json:"statistics"`
	Contracts  []model.Contract   `json:"contracts"`
}

// ReportService 报表服务，结果按 kind 缓存
type ReportService interface {
	Summary(ctx context.Context, kind ReportKind) ([]model.GroupStats, error)
	Detail(ctx context.Context, kind ReportKind, name string) (*ReportDetail, error)
	// Invalidate 合同变更后清空缓存
	Invalidate(ctx context.Context) error
}

type reportService struct {
	repo  repository.ReportRepository
	cache cache.Cache
}

// NewReportService 创建报表服务，c 为 nil 时不缓存
func NewReportService(repo repository.ReportRepository, c cache.Cache) ReportService {
	if c == nil {
		c = cache.Noop{}
	}
	return &reportService{repo: repo, cache: c}
}

func (s *reportService) Summary(ctx context.Context, kind ReportKind) ([]model.GroupStats, error) {
	target, ok := reportTargets[kind]
	if !ok {
		return nil, fmt.Errorf("report %q: %w", kind, ErrInvalidPayload)
	}

	key := "summary:" + string(kind)
	var stats []model.GroupStats
	if s.lookup(ctx, key, &stats) {
		return stats, nil
	}

	stats, err := s.repo.Summary(ctx, target.column)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, stats)
	return stats, nil
}

func (s *reportService) Detail(ctx context.Context, kind ReportKind, name string) (*ReportDetail, error) {
	target, ok := reportTargets[kind]
	if !ok {
		return nil, fmt.Errorf("report %q: %w", kind, ErrInvalidPayload)
	}

	key := fmt.Sprintf("detail:%s:%s", kind, name)
	var detail ReportDetail
	if s.lookup(ctx, key, &detail) {
		return &detail, nil
	}

	stats, contracts, err := s.repo.Detail(ctx, target.column, name)
	if err != nil {
		return nil, err
	}
	detail = ReportDetail{
		EntityName: name,
		EntityType: target.entityType,
		Statistics: stats,
		Contracts:  contracts,
	}
	s.store(ctx, key, detail)
	return &detail, nil
}

func (s *reportService) Invalidate(ctx context.Context) error {
	return s.cache.DeletePrefix(ctx, "")
}

// lookup 缓存出错时按未命中处理
func (s *reportService) lookup(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		klog.Warningf("report cache get %s: %v", key, err)
		return false
	}
	return hit
}

func (s *reportService) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		klog.Warningf("report cache set %s: %v", key, err)
	}
}
