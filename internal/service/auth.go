package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"
)

// 凭证类型，由 Authorization 头的 scheme 区分
const (
	SchemeSession = "Bearer"
	SchemeSigner  = "Signer"
)

type PrincipalKind string

const (
	PrincipalSession PrincipalKind = "session"
	PrincipalSigner  PrincipalKind = "signer"
)

// Principal 鉴权后的调用方
type Principal struct {
	Kind     PrincipalKind
	UserID   uint
	Username string
	Role     model.Role
	// ContractID 和 Email 只对签署链接有效
	ContractID string
	Email      string
}

// HasRole 判断角色是否在允许列表中
func (p *Principal) HasRole(roles ...model.Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanAccessContract 会话用户不受限，签署者只能访问自己的合同
func (p *Principal) CanAccessContract(contractID string) bool {
	if p == nil {
		return false
	}
	if p.Kind == PrincipalSigner {
		return p.ContractID == contractID
	}
	return true
}

// Claims JWT 载荷
type Claims struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService 登录和凭证解析
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	IssueToken(user *model.User) (string, error)
	// Authenticate 按 scheme 选择凭证类型解析
	Authenticate(scheme, credential string) (*Principal, error)
	ParseSessionToken(token string) (*Principal, error)
	ParseSigningToken(token string) (*Principal, error)
	IssueSigningToken(contractID, email string) string
}

type authService struct {
	users     repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService 创建认证服务，tokenTTL 不大于 0 时使用默认 24 小时
func NewAuthService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration) AuthService {
	if jwtSecret == "" {
		klog.Warningf("jwt secret is empty, using default secret")
		jwtSecret = "your-secret-key"
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{users: users, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("user %s logged in", user.Username)
	return &LoginResult{Token: token, User: user}, nil
}

func (s *authService) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) Authenticate(scheme, credential string) (*Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrUnauthorized
	}
	switch {
	case strings.EqualFold(scheme, SchemeSession):
		return s.ParseSessionToken(credential)
	case strings.EqualFold(scheme, SchemeSigner):
		return s.ParseSigningToken(credential)
	default:
		return nil, fmt.Errorf("scheme %q: %w", scheme, ErrUnauthorized)
	}
}

func (s *authService) ParseSessionToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUnauthorized)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrUnauthorized
	}
	return &Principal{
		Kind:     PrincipalSession,
		UserID:   claims.ID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// ParseSigningToken 解码 base64("合同编号:邮箱")，不查库
func (s *authService) ParseSigningToken(token string) (*Principal, error) {
	var decoded []byte
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if data, err := enc.DecodeString(token); err == nil {
			decoded = data
			break
		}
	}
	if decoded == nil {
		return nil, ErrUnauthorized
	}

	contractID, email, found := strings.Cut(string(decoded), ":")
	if !found || contractID == "" || !(strings.HasPrefix(contractID, "CN-") || strings.Contains(contractID, "-")) {
		return nil, ErrUnauthorized
	}
	return &Principal{
		Kind:       PrincipalSigner,
		Username:   email,
		Role:       model.RoleSigner,
		ContractID: contractID,
		Email:      email,
	}, nil
}

func (s *authService) IssueSigningToken(contractID, email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(contractID + ":" + email))
}

// HashPassword bcrypt 哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
