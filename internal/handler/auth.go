package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// AuthHandler 登录接口
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler 创建登录 handler
func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验用户名密码并签发会话令牌
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("Login: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
