package eventbus

type ContractEventType string

const (
	ContractEventCreated ContractEventType = "ContractCreated"
	ContractEventUpdated ContractEventType = "ContractUpdated"
	ContractEventDeleted ContractEventType = "ContractDeleted"
	ContractEventSigned  ContractEventType = "ContractSigned"
)

type ContractEvent struct {
	Type       ContractEventType
	ContractID string
	Manager    string // 负责人用户名
	Collector  string // 收款人用户名
	Actor      string // 触发操作的用户
}

type ContractEventHandler = Handler[ContractEvent]
type ContractEventBus = Bus[ContractEventType, ContractEvent]

// NewContractEventBus 创建合同事件总线
func NewContractEventBus() *ContractEventBus {
	return NewBus[ContractEventType, ContractEvent]()
}

// AllContractEventTypes 订阅全部合同事件时使用
func AllContractEventTypes() []ContractEventType {
	return []ContractEventType{ContractEventCreated, ContractEventUpdated, ContractEventDeleted, ContractEventSigned}
}
