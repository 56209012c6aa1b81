package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/repository"
)

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	Role        model.Role `json:"role"`
	DisplayName string     `json:"display_name"`
}

// UpdateUserRequest 为 nil 的字段不修改
type UpdateUserRequest struct {
	Password    *string     `json:"password"`
	Role        *model.Role `json:"role"`
	DisplayName *string     `json:"display_name"`
}

// UserService 用户服务
type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint, req *UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidPayload)
	}
	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrInvalidPayload)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		DisplayName:  req.DisplayName,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest) (*model.User, error) {
	fields := make(map[string]any)
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("role %q: %w", *req.Role, ErrInvalidPayload)
		}
		fields["role"] = *req.Role
	}
	if req.DisplayName != nil {
		fields["display_name"] = *req.DisplayName
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, fmt.Errorf("password must not be empty: %w", ErrInvalidPayload)
		}
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	if len(fields) == 0 {
		return s.repo.GetByID(ctx, id)
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
