package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal API请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration API请求处理时长
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// OnlineUsers 实时通道在线用户数
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_online_users",
			Help: "Number of usernames with at least one live realtime session",
		},
	)

	// NotificationsDelivered 成功投递的通知数
	NotificationsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_notifications_delivered_total",
			Help: "Total number of notifications written to realtime sessions",
		},
	)

	// ContractsSigned 电子签署完成数
	ContractsSigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contracts_signed_total",
			Help: "Total number of contracts signed electronically",
		},
	)

	// ContractIDConflicts 生成合同编号时的主键冲突次数
	ContractIDConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_id_conflicts_total",
			Help: "Total number of generated contract ids rejected as duplicates",
		},
	)
)
