package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/middleware"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// UserHandler 用户管理接口
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建用户 handler
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me 当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil || principal.Kind != service.PrincipalSession {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}
	user, err := h.service.Get(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, "Me", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("CreateUser: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "CreateUser", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update 非管理员只能修改自己的密码和显示名
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("UpdateUser: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != nil && !middleware.GetPrincipal(c).HasRole(model.RoleAdmin) {
		writeError(c, "UpdateUser", service.ErrForbidden)
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, "UpdateUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteUser", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
