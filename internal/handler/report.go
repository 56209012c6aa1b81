package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/service"
)

// ReportHandler 报表接口
type ReportHandler struct {
	service service.ReportService
}

// NewReportHandler 创建报表 handler
func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary 按 kind 分组汇总，每行的名称字段以分组列命名（collector、manager、second_party）
func (h *ReportHandler) Summary(kind service.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.service.Summary(c.Request.Context(), kind)
		if err != nil {
			writeError(c, "ReportSummary", err)
			return
		}
		rows := make([]map[string]any, 0, len(stats))
		for _, s := range stats {
			rows = append(rows, s.KeyedBy(kind.Column()))
		}
		c.JSON(http.StatusOK, rows)
	}
}

// Detail 单个对象的统计和合同列表，:name 为对象名称
func (h *ReportHandler) Detail(kind service.ReportKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := h.service.Detail(c.Request.Context(), kind, c.Param("name"))
		if err != nil {
			writeError(c, "ReportDetail", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}
