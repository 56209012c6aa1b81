package subscriber

import (
	"context"

	"github.com/weibaohui/contracthub/internal/eventbus"
	"k8s.io/klog/v2"
)

type reportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReportCacheSubscriber 合同有任何变化时清空报表缓存
type ReportCacheSubscriber struct {
	reports reportInvalidator
}

// NewReportCacheSubscriber 创建报表缓存订阅者
func NewReportCacheSubscriber(reports reportInvalidator) *ReportCacheSubscriber {
	return &ReportCacheSubscriber{reports: reports}
}

func (s *ReportCacheSubscriber) Register(bus *eventbus.ContractEventBus) {
	if bus == nil {
		return
	}
	for _, t := range eventbus.AllContractEventTypes() {
		bus.Subscribe(t, s.handle)
	}
}

func (s *ReportCacheSubscriber) handle(ctx context.Context, event eventbus.ContractEvent) error {
	if err := s.reports.Invalidate(ctx); err != nil {
		klog.Errorf("报表缓存清理失败: type=%s, contract=%s, error=%v", event.Type, event.ContractID, err)
		return err
	}
	return nil
}
