package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// TermHandler 合同条款接口
type TermHandler struct {
	service service.TermService
}

// NewTermHandler 创建条款 handler
func NewTermHandler(service service.TermService) *TermHandler {
	return &TermHandler{service: service}
}

func (h *TermHandler) List(c *gin.Context) {
	terms, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, "ListTerms", err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

func (h *TermHandler) Get(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}
	term, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetTerm", err)
		return
	}
	c.JSON(http.StatusOK, term)
}

func (h *TermHandler) Create(c *gin.Context) {
	var req service.TermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("CreateTerm: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		writeError(c, "CreateTerm", err)
		return
	}
	c.JSON(http.StatusCreated, term)
}

func (h *TermHandler) Update(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}

	var req service.TermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("UpdateTerm: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, "UpdateTerm", err)
		return
	}
	c.JSON(http.StatusOK, term)
}

func (h *TermHandler) Delete(c *gin.Context) {
	id, ok := parseUintID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteTerm", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Term deleted"})
}
