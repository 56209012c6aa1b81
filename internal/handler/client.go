package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// ClientHandler 客户接口
type ClientHandler struct {
	service service.ClientService
}

// NewClientHandler 创建客户 handler
func NewClientHandler(service service.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, "ListClients", err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "GetClient", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Create(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("CreateClient: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "CreateClient", err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("UpdateClient: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, "UpdateClient", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "DeleteClient", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
