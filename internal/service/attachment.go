package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/storage"
	"github.com/weibaohui/contracthub/internal/repository"
	"k8s.io/klog/v2"
)

// AttachmentInput 单个附件字段。图片数据来自 FileData（data URI 或 base64）或 multipart 文件
type AttachmentInput struct {
	FieldName    string  `json:"fieldName"`
	FieldType    string  `json:"fieldType"`
	TextValue    *string `json:"textValue"`
	FileData     string  `json:"fileData"`
	IsFromParent bool    `json:"isFromParent"`
	File         []byte  `json:"-"`
}

// AttachmentService 合同附件服务
type AttachmentService interface {
	// Save 先校验全部文件，再逐个写文件和记录
	Save(ctx context.Context, contractID string, inputs []AttachmentInput) ([]model.ContractAttachment, error)
	List(ctx context.Context, contractID string) ([]model.ContractAttachment, error)
	FilePath(ctx context.Context, contractID, filename string) (string, error)
}

type attachmentService struct {
	repo      repository.AttachmentRepository
	contracts repository.ContractRepository
	store     *storage.Store
}

// NewAttachmentService 创建附件服务
func NewAttachmentService(repo repository.AttachmentRepository, contracts repository.ContractRepository, store *storage.Store) AttachmentService {
	return &attachmentService{repo: repo, contracts: contracts, store: store}
}

type preparedAttachment struct {
	input AttachmentInput
	data  []byte
	ext   string
}

func (s *attachmentService) Save(ctx context.Context, contractID string, inputs []AttachmentInput) ([]model.ContractAttachment, error) {
	if _, err := s.contracts.Get(ctx, contractID); err != nil {
		return nil, err
	}

	prepared := make([]preparedAttachment, 0, len(inputs))
	for i, in := range inputs {
		p, err := s.prepare(in)
		if err != nil {
			return nil, fmt.Errorf("attachment %d (%s): %w", i+1, in.FieldName, err)
		}
		prepared = append(prepared, p)
	}

	klog.V(6).Infof("processing %d attachments for contract %s", len(prepared), contractID)
	saved := make([]model.ContractAttachment, 0, len(prepared))
	for _, p := range prepared {
		attachment, err := s.persist(ctx, contractID, p)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *attachment)
	}
	return saved, nil
}

func (s *attachmentService) prepare(in AttachmentInput) (preparedAttachment, error) {
	in.FieldName = strings.TrimSpace(in.FieldName)
	if in.FieldName == "" {
		return preparedAttachment{}, fmt.Errorf("fieldName is required: %w", ErrInvalidPayload)
	}

	switch in.FieldType {
	case model.FieldTypeText:
		return preparedAttachment{input: in}, nil
	case model.FieldTypeImage:
	default:
		return preparedAttachment{}, fmt.Errorf("fieldType %q: %w", in.FieldType, ErrInvalidPayload)
	}

	data := in.File
	if len(data) == 0 && in.FileData != "" {
		decoded, err := storage.DecodeDataURI(in.FileData)
		if err != nil {
			return preparedAttachment{}, storageError(err)
		}
		data = decoded
	}
	if len(data) == 0 {
		// 没有文件的图片字段只记录字段本身
		return preparedAttachment{input: in}, nil
	}

	ext, err := s.store.Validate(data)
	if err != nil {
		return preparedAttachment{}, storageError(err)
	}
	return preparedAttachment{input: in, data: data, ext: ext}, nil
}

// persist 写文件后插入记录，插入失败时删除刚写入的文件
func (s *attachmentService) persist(ctx context.Context, contractID string, p preparedAttachment) (*model.ContractAttachment, error) {
	attachment := &model.ContractAttachment{
		ContractID:   contractID,
		FieldName:    p.input.FieldName,
		FieldType:    p.input.FieldType,
		IsFromParent: p.input.IsFromParent,
	}
	if p.input.FieldType == model.FieldTypeText {
		attachment.TextValue = p.input.TextValue
	}

	if len(p.data) > 0 {
		filename, err := s.store.SaveContractFile(contractID, p.input.FieldName, p.ext, p.data)
		if err != nil {
			return nil, err
		}
		attachment.ImageFilename = &filename
	}

	if err := s.repo.Create(ctx, attachment); err != nil {
		if attachment.ImageFilename != nil {
			if rmErr := s.store.RemoveContractFile(contractID, *attachment.ImageFilename); rmErr != nil {
				klog.Errorf("failed to remove orphan file %s of %s: %v", *attachment.ImageFilename, contractID, rmErr)
			}
		}
		return nil, err
	}
	return attachment, nil
}

func (s *attachmentService) List(ctx context.Context, contractID string) ([]model.ContractAttachment, error) {
	attachments, err := s.repo.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []model.ContractAttachment{}
	}
	return attachments, nil
}

func (s *attachmentService) FilePath(ctx context.Context, contractID, filename string) (string, error) {
	path, err := s.store.ContractFilePath(contractID, filename)
	if err != nil {
		return "", fmt.Errorf("file %s: %w", filename, repository.ErrNotFound)
	}
	return path, nil
}
