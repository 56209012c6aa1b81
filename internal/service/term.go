package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/repository"
)

// TermRequest 条款请求
type TermRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// TermService 条款服务
type TermService interface {
	Create(ctx context.Context, req *TermRequest) (*model.Term, error)
	Get(ctx context.Context, id uint) (*model.Term, error)
	List(ctx context.Context) ([]model.Term, error)
	Update(ctx context.Context, id uint, req *TermRequest) (*model.Term, error)
	Delete(ctx context.Context, id uint) error
}

type termService struct {
	repo repository.TermRepository
}

// NewTermService 创建条款服务
func NewTermService(repo repository.TermRepository) TermService {
	return &termService{repo: repo}
}

func (s *termService) Create(ctx context.Context, req *TermRequest) (*model.Term, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", ErrInvalidPayload)
	}
	term := &model.Term{Name: req.Name, Type: termType(req.Type), Content: req.Content}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, err
	}
	return term, nil
}

func (s *termService) Get(ctx context.Context, id uint) (*model.Term, error) {
	return s.repo.Get(ctx, id)
}

func (s *termService) List(ctx context.Context) ([]model.Term, error) {
	terms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []model.Term{}
	}
	return terms, nil
}

func (s *termService) Update(ctx context.Context, id uint, req *TermRequest) (*model.Term, error) {
	term, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) != "" {
		term.Name = req.Name
	}
	if req.Type != "" {
		term.Type = req.Type
	}
	term.Content = req.Content
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, err
	}
	return term, nil
}

func (s *termService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func termType(t string) string {
	if t == "" {
		return "text"
	}
	return t
}
