package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/weibaohui/contracthub/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID 主键或唯一键冲突
var ErrDuplicateID = errors.New("duplicate id")

// ErrInvalidValue 字段值类型不被接受
var ErrInvalidValue = errors.New("invalid field value")

// ContractFilter 合同列表过滤条件
type ContractFilter struct {
	Query  string
	Status string
}

type ContractRepository interface {
	// NextID 计算当年下一个合同编号，查询失败时退化为时间戳编号
	NextID(ctx context.Context, year int) string
	Create(ctx context.Context, id string, fields map[string]any) error
	// Update 只写入 fields 中出现且允许的列，返回写入的列数
	Update(ctx context.Context, id string, fields map[string]any) (int, error)
	Get(ctx context.Context, id string) (*model.Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]model.Contract, error)
	ListAll(ctx context.Context) ([]model.Contract, error)
	// Delete 在同一事务内删除附件记录和合同记录，removeFiles 失败只记录日志
	Delete(ctx context.Context, id string, removeFiles func() error) error
	MarkSigned(ctx context.Context, id string) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	List(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, client *model.Client) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type TermRepository interface {
	Create(ctx context.Context, term *model.Term) error
	Get(ctx context.Context, id uint) (*model.Term, error)
	List(ctx context.Context) ([]model.Term, error)
	Update(ctx context.Context, term *model.Term) error
	Delete(ctx context.Context, id uint) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *model.ContractAttachment) error
	ListByContract(ctx context.Context, contractID string) ([]model.ContractAttachment, error)
}

type ReportRepository interface {
	// Summary 按分组列统计，column 只能是 collector、manager、second_party
	Summary(ctx context.Context, column string) ([]model.GroupStats, error)
	Detail(ctx context.Context, column, name string) (*model.EntityStats, []model.Contract, error)
}

// isDuplicateKey 兼容开启与未开启 TranslateError 的驱动
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
