package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/repository"
)

// ClientRequest 创建/更新客户请求
type ClientRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	City     *string `json:"city"`
	District *string `json:"district"`
}

// ClientService 客户服务
type ClientService interface {
	Create(ctx context.Context, req *ClientRequest) (*model.Client, error)
	Get(ctx context.Context, id string) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, id string, req *ClientRequest) (*model.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientService struct {
	repo repository.ClientRepository
}

// NewClientService 创建客户服务
func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) Create(ctx context.Context, req *ClientRequest) (*model.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidPayload)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = "client-" + uuid.NewString()
	}
	client := &model.Client{
		ID:       id,
		Name:     name,
		Type:     clientType(req.Type),
		City:     emptyToNil(req.City),
		District: emptyToNil(req.District),
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Get(ctx context.Context, id string) (*model.Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *clientService) List(ctx context.Context) ([]model.Client, error) {
	clients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients, nil
}

func (s *clientService) Update(ctx context.Context, id string, req *ClientRequest) (*model.Client, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		client.Name = name
	}
	if req.Type != "" {
		client.Type = req.Type
	}
	if req.City != nil {
		client.City = emptyToNil(req.City)
	}
	if req.District != nil {
		client.District = emptyToNil(req.District)
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func clientType(t string) string {
	if strings.TrimSpace(t) == "" {
		return model.DefaultClientType
	}
	return t
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
