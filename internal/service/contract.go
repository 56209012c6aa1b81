package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/weibaohui/contracthub/internal/eventbus"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/metrics"
	"github.com/weibaohui/contracthub/internal/pkg/storage"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/xuri/excelize/v2"
	"k8s.io/klog/v2"
)

// maxIDAttempts 生成编号冲突时的最大尝试次数
const maxIDAttempts = 3

// 调用方指定的编号同时用作附件目录名
const maxIDLength = 50

var contractIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// exportHeaders CSV/Excel 导出列
var exportHeaders = []string{"id", "client_id", "service_name", "total_price", "status", "created_at"}

// SigningLink 签署链接
type SigningLink struct {
	ContractID string `json:"contract_id"`
	Token      string `json:"token"`
	URL        string `json:"url"`
}

// ContractService 合同服务
type ContractService interface {
	List(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error)
	Get(ctx context.Context, id string) (*model.Contract, error)
	// Create fields 中带 id 时使用调用方编号，重复返回 ErrDuplicateID
	Create(ctx context.Context, fields map[string]any, actor string) (*model.Contract, error)
	Update(ctx context.Context, id string, fields map[string]any, actor string) (*model.Contract, error)
	Delete(ctx context.Context, id string, actor string) error
	Sign(ctx context.Context, id string, pdf []byte, actor string) (string, error)
	SignedFile(ctx context.Context, id string) (string, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ExportXLSX(ctx context.Context, w io.Writer) error
	SigningLink(ctx context.Context, id string) (*SigningLink, error)
}

type contractService struct {
	repo  repository.ContractRepository
	store *storage.Store
	bus   *eventbus.ContractEventBus
	auth  AuthService
	now   func() time.Time
}

// NewContractService 创建合同服务，bus 为 nil 时不发布事件
func NewContractService(repo repository.ContractRepository, store *storage.Store, bus *eventbus.ContractEventBus, auth AuthService) ContractService {
	return &contractService{repo: repo, store: store, bus: bus, auth: auth, now: time.Now}
}

func (s *contractService) List(ctx context.Context, filter repository.ContractFilter) ([]model.Contract, error) {
	contracts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	return contracts, nil
}

func (s *contractService) Get(ctx context.Context, id string) (*model.Contract, error) {
	return s.repo.Get(ctx, id)
}

func (s *contractService) Create(ctx context.Context, fields map[string]any, actor string) (*model.Contract, error) {
	id, supplied, err := suppliedID(fields)
	if err != nil {
		return nil, err
	}

	if supplied {
		if err := s.repo.Create(ctx, id, fields); err != nil {
			return nil, s.wrapValueError(err)
		}
	} else {
		id, err = s.createWithGeneratedID(ctx, fields)
		if err != nil {
			return nil, err
		}
	}

	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("contract %s created by %s", id, actor)
	s.publish(ctx, eventbus.ContractEventCreated, contract, actor)
	return contract, nil
}

// createWithGeneratedID 主键冲突时重新计算编号
func (s *contractService) createWithGeneratedID(ctx context.Context, fields map[string]any) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id := s.repo.NextID(ctx, s.now().Year())
		err := s.repo.Create(ctx, id, fields)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			return "", s.wrapValueError(err)
		}
		metrics.ContractIDConflicts.Inc()
		klog.Warningf("generated contract id %s already taken (attempt %d/%d)", id, attempt, maxIDAttempts)
		lastErr = err
	}
	return "", lastErr
}

func (s *contractService) Update(ctx context.Context, id string, fields map[string]any, actor string) (*model.Contract, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	delete(fields, "id")

	changed, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, s.wrapValueError(err)
	}
	if changed == 0 {
		return nil, ErrNoChanges
	}

	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventbus.ContractEventUpdated, contract, actor)
	return contract, nil
}

func (s *contractService) Delete(ctx context.Context, id string, actor string) error {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, id, func() error {
		return s.store.RemoveContractDir(id)
	})
	if err != nil {
		return err
	}
	klog.Infof("contract %s deleted by %s", id, actor)
	s.publish(ctx, eventbus.ContractEventDeleted, contract, actor)
	return nil
}

// Sign 保存签署后的 PDF 并把合同标记为已生效
func (s *contractService) Sign(ctx context.Context, id string, pdf []byte, actor string) (string, error) {
	if len(pdf) == 0 {
		return "", fmt.Errorf("no PDF provided: %w", ErrInvalidPayload)
	}
	ext, err := s.store.Validate(pdf)
	if err != nil {
		return "", storageError(err)
	}
	if ext != ".pdf" {
		return "", fmt.Errorf("signed document must be a PDF: %w", ErrUnsupportedFile)
	}

	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.store.SaveSigned(id, pdf); err != nil {
		return "", storageError(err)
	}
	if err := s.repo.MarkSigned(ctx, id); err != nil {
		return "", err
	}
	metrics.ContractsSigned.Inc()

	email := "N/A"
	if contract.ClientEmail != nil && *contract.ClientEmail != "" {
		email = *contract.ClientEmail
	}
	klog.Infof("contract %s signed by %s, email notice to %s", id, actor, email)

	s.publish(ctx, eventbus.ContractEventSigned, contract, actor)
	return "signed_" + id + ".pdf", nil
}

func (s *contractService) SignedFile(ctx context.Context, id string) (string, error) {
	path, err := s.store.SignedPath(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return "", fmt.Errorf("signed PDF of %s: %w", id, repository.ErrNotFound)
		}
		return "", err
	}
	return path, nil
}

func (s *contractService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.exportRows(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeaders); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func (s *contractService) ExportXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.exportRows(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Contracts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for r, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return f.Write(w)
}

func (s *contractService) exportRows(ctx context.Context) ([][]string, error) {
	contracts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(contracts))
	for _, c := range contracts {
		total := ""
		if c.TotalPrice.Valid {
			total = c.TotalPrice.Decimal.StringFixed(2)
		}
		created := ""
		if c.CreatedAt != nil {
			created = c.CreatedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{c.ID, deref(c.ClientID), deref(c.ServiceName), total, c.Status, created})
	}
	return rows, nil
}

func (s *contractService) SigningLink(ctx context.Context, id string) (*SigningLink, error) {
	contract, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token := s.auth.IssueSigningToken(contract.ID, deref(contract.ClientEmail))
	return &SigningLink{
		ContractID: contract.ID,
		Token:      token,
		URL:        "/sign/" + url.PathEscape(contract.ID) + "/" + url.PathEscape(token),
	}, nil
}

func (s *contractService) publish(ctx context.Context, eventType eventbus.ContractEventType, contract *model.Contract, actor string) {
	if s.bus == nil {
		return
	}
	event := eventbus.ContractEvent{
		Type:       eventType,
		ContractID: contract.ID,
		Manager:    deref(contract.Manager),
		Collector:  deref(contract.Collector),
		Actor:      actor,
	}
	if err := s.bus.Publish(ctx, eventType, event); err != nil {
		klog.Warningf("publish %s for %s: %v", eventType, contract.ID, err)
	}
}

func (s *contractService) wrapValueError(err error) error {
	if errors.Is(err, repository.ErrInvalidValue) {
		return fmt.Errorf("%v: %w", err, ErrInvalidPayload)
	}
	return err
}

// suppliedID 读取调用方指定的编号
func suppliedID(fields map[string]any) (string, bool, error) {
	raw, ok := fields["id"]
	if !ok || raw == nil {
		return "", false, nil
	}
	id, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("id must be a string: %w", ErrInvalidPayload)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false, nil
	}
	if len(id) > maxIDLength || !contractIDPattern.MatchString(id) {
		return "", false, fmt.Errorf("id %q: %w", id, ErrInvalidPayload)
	}
	return id, true, nil
}

// storageError 把存储层错误映射为服务层错误
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return fmt.Errorf("%v: %w", err, ErrFileTooLarge)
	case errors.Is(err, storage.ErrUnsupportedType):
		return fmt.Errorf("%v: %w", err, ErrUnsupportedFile)
	case errors.Is(err, storage.ErrInvalidData), errors.Is(err, storage.ErrInvalidID):
		return fmt.Errorf("%v: %w", err, ErrInvalidPayload)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
