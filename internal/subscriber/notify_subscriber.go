package subscriber

import (
	"context"
	"fmt"

	"github.com/weibaohui/contracthub/internal/eventbus"
	"github.com/weibaohui/contracthub/internal/realtime"
	"k8s.io/klog/v2"
)

type notifier interface {
	Notify(username string, notification realtime.Notification) int
}

// NotifySubscriber 把合同事件推送给负责人和收款人
type NotifySubscriber struct {
	hub notifier
}

// NewNotifySubscriber 创建通知订阅者
func NewNotifySubscriber(hub notifier) *NotifySubscriber {
	return &NotifySubscriber{hub: hub}
}

func (s *NotifySubscriber) Register(bus *eventbus.ContractEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ContractEventCreated, s.handle)
	bus.Subscribe(eventbus.ContractEventSigned, s.handle)
	bus.Subscribe(eventbus.ContractEventDeleted, s.handle)
}

func (s *NotifySubscriber) handle(ctx context.Context, event eventbus.ContractEvent) error {
	recipients := make([]string, 0, 2)
	for _, name := range []string{event.Manager, event.Collector} {
		if name == "" || name == event.Actor || contains(recipients, name) {
			continue
		}
		recipients = append(recipients, name)
	}

	for _, username := range recipients {
		delivered := s.hub.Notify(username, realtime.Notification{
			From:    event.Actor,
			Type:    string(event.Type),
			Title:   event.ContractID,
			Message: message(event),
			Data:    map[string]string{"contract_id": event.ContractID},
		})
		klog.V(6).Infof("合同事件通知: type=%s, contract=%s, to=%s, delivered=%d", event.Type, event.ContractID, username, delivered)
	}
	return nil
}

func message(event eventbus.ContractEvent) string {
	switch event.Type {
	case eventbus.ContractEventCreated:
		return fmt.Sprintf("Contract %s was created", event.ContractID)
	case eventbus.ContractEventSigned:
		return fmt.Sprintf("Contract %s was signed", event.ContractID)
	case eventbus.ContractEventDeleted:
		return fmt.Sprintf("Contract %s was deleted", event.ContractID)
	}
	return fmt.Sprintf("Contract %s changed", event.ContractID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
