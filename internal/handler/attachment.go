package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// AttachmentHandler 合同附件接口
type AttachmentHandler struct {
	service     service.AttachmentService
	maxFileSize int64
}

// NewAttachmentHandler 创建附件 handler
func NewAttachmentHandler(service service.AttachmentService, maxFileSize int64) *AttachmentHandler {
	return &AttachmentHandler{service: service, maxFileSize: maxFileSize}
}

type attachmentRequest struct {
	AttachmentsData json.RawMessage `json:"attachmentsData"`
}

// Save 接收 attachmentsData（JSON 字符串或数组）。multipart 时以字段名为文件 part 名
func (h *AttachmentHandler) Save(c *gin.Context) {
	id := c.Param("id")

	inputs, err := h.readInputs(c)
	if err != nil {
		klog.V(6).Infof("SaveAttachments %s: invalid request: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.service.Save(c.Request.Context(), id, inputs)
	if err != nil {
		writeError(c, "SaveAttachments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachments saved", "attachments": saved})
}

func (h *AttachmentHandler) readInputs(c *gin.Context) ([]service.AttachmentInput, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req attachmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return parseAttachmentsData(req.AttachmentsData)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	raw := ""
	if values := form.Value["attachmentsData"]; len(values) > 0 {
		raw = values[0]
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	inputs, err := parseAttachmentsData(encoded)
	if err != nil {
		return nil, err
	}

	for i := range inputs {
		headers := form.File[inputs[i].FieldName]
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, err
		}
		data, err := readLimited(f, h.maxFileSize)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", inputs[i].FieldName, err)
		}
		inputs[i].File = data
	}
	return inputs, nil
}

// parseAttachmentsData 兼容数组和字符串化的数组
func parseAttachmentsData(raw json.RawMessage) ([]service.AttachmentInput, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("attachmentsData is required")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, errors.New("attachmentsData is required")
		}
		raw = json.RawMessage(s)
	}

	var inputs []service.AttachmentInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		return nil, fmt.Errorf("invalid attachmentsData: %w", err)
	}
	return inputs, nil
}

func (h *AttachmentHandler) List(c *gin.Context) {
	attachments, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "ListAttachments", err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}

// File 读取附件文件，文件名只取 base name
func (h *AttachmentHandler) File(c *gin.Context) {
	path, err := h.service.FilePath(c.Request.Context(), c.Param("id"), c.Param("filename"))
	if err != nil {
		writeError(c, "AttachmentFile", err)
		return
	}
	c.File(path)
}
