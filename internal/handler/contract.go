package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/middleware"
	"github.com/weibaohui/contracthub/internal/pkg/storage"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

// ContractHandler 合同接口
type ContractHandler struct {
	service     service.ContractService
	maxFileSize int64
}

// NewContractHandler 创建合同 handler，maxFileSize 限制上传的签署 PDF 大小
func NewContractHandler(service service.ContractService, maxFileSize int64) *ContractHandler {
	return &ContractHandler{service: service, maxFileSize: maxFileSize}
}

// List 支持 q 模糊搜索和 status 过滤
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.service.List(c.Request.Context(), repository.ContractFilter{
		Query:  c.Query("q"),
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, "ListContracts", err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "GetContract", err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *ContractHandler) Create(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		klog.V(6).Infof("CreateContract: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.service.Create(c.Request.Context(), fields, actor(c))
	if err != nil {
		writeError(c, "CreateContract", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Contract created", "id": contract.ID, "contract": contract})
}

// Update 只修改请求中出现的字段，空字符串写入 NULL
func (h *ContractHandler) Update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		klog.V(6).Infof("UpdateContract: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.service.Update(c.Request.Context(), c.Param("id"), fields, actor(c))
	if errors.Is(err, service.ErrNoChanges) {
		c.JSON(http.StatusOK, gin.H{"message": "No changes"})
		return
	}
	if err != nil {
		writeError(c, "UpdateContract", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract updated", "contract": contract})
}

func (h *ContractHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id, actor(c)); err != nil {
		writeError(c, "DeleteContract", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}

func (h *ContractHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="contracts.csv"`)
	if err := h.service.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		klog.Errorf("ExportCSV: failed: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}

func (h *ContractHandler) ExportXLSX(c *gin.Context) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="contracts.xlsx"`)
	if err := h.service.ExportXLSX(c.Request.Context(), c.Writer); err != nil {
		klog.Errorf("ExportXLSX: failed: %v", err)
		c.Status(http.StatusInternalServerError)
	}
}

type signRequest struct {
	PDFBase64 string `json:"pdfBase64"`
}

// Sign 接收 multipart 的 signedPdf 或 JSON 的 pdfBase64
func (h *ContractHandler) Sign(c *gin.Context) {
	id := c.Param("id")

	pdf, err := h.readSignedPDF(c)
	if err != nil {
		klog.V(6).Infof("SignContract %s: %v", id, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.service.Sign(c.Request.Context(), id, pdf, actor(c))
	if err != nil {
		writeError(c, "SignContract", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed successfully", "file": file})
}

func (h *ContractHandler) readSignedPDF(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("signedPdf")
		if err != nil {
			return nil, errors.New("no PDF provided")
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f, h.maxFileSize)
	}

	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PDFBase64 == "" {
		return nil, errors.New("no PDF provided")
	}
	data, err := storage.DecodeDataURI(req.PDFBase64)
	if err != nil {
		return nil, errors.New("invalid Base64 data")
	}
	return data, nil
}

// Download 返回签署后的 PDF
func (h *ContractHandler) Download(c *gin.Context) {
	id := c.Param("id")
	path, err := h.service.SignedFile(c.Request.Context(), id)
	if err != nil {
		writeError(c, "DownloadContract", err)
		return
	}
	c.FileAttachment(path, fmt.Sprintf("signed_%s.pdf", id))
}

// SigningLink 生成发给客户的签署链接
func (h *ContractHandler) SigningLink(c *gin.Context) {
	link, err := h.service.SigningLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "SigningLink", err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// readLimited 超过 limit 时返回 ErrFileTooLarge
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, service.ErrFileTooLarge
	}
	return data, nil
}

// actor 当前调用方的用户名
func actor(c *gin.Context) string {
	if p := middleware.GetPrincipal(c); p != nil {
		return p.Username
	}
	return ""
}
