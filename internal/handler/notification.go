package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/realtime"
	"k8s.io/klog/v2"
)

type notifier interface {
	Notify(username string, notification realtime.Notification) int
	Users() []string
}

// NotificationHandler 通知接口
type NotificationHandler struct {
	hub notifier
}

// NewNotificationHandler 创建通知 handler
func NewNotificationHandler(hub notifier) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// NotificationRequest 发送通知请求
type NotificationRequest struct {
	To      string `json:"to" binding:"required"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message" binding:"required"`
	Data    any    `json:"data"`
}

// Send 推送给目标用户的所有在线会话，离线时丢弃
func (h *NotificationHandler) Send(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("SendNotification: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivered := h.hub.Notify(req.To, realtime.Notification{
		From:      actor(c),
		To:        req.To,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

// Online 当前在线用户
func (h *NotificationHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.hub.Users()})
}
