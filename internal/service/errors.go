package service

import "errors"

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized 缺少或无法识别的凭证
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden 角色或合同范围不允许
	ErrForbidden = errors.New("access denied")
	// ErrInvalidPayload 请求数据校验失败
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	// ErrNoChanges 更新请求没有可写字段
	ErrNoChanges = errors.New("no changes")
)
