package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// writeError 按错误类型映射状态码
func writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidPayload),
		errors.Is(err, service.ErrUnsupportedFile),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, repository.ErrInvalidValue):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		klog.Errorf("%s: failed: %v", op, err)
	} else {
		klog.V(6).Infof("%s: %v", op, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseUintID 解析路径中的数字 id
func parseUintID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
