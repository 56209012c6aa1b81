package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/weibaohui/contracthub/internal/middleware"
	"github.com/weibaohui/contracthub/internal/realtime"
	"k8s.io/klog/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler 实时通道
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler 创建 websocket handler
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve 升级为 websocket，会话绑定到已认证的用户名
func (h *WSHandler) Serve(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		klog.Errorf("WS: upgrade failed: %v", err)
		return
	}
	klog.V(6).Infof("WS: %s connected from %s", principal.Username, c.ClientIP())
	h.hub.Serve(conn, principal.Username)
}
