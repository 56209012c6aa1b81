package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/service"
	"k8s.io/klog/v2"
)

const principalKey = "principal"

type authenticator interface {
	Authenticate(scheme, credential string) (*service.Principal, error)
}

// Auth 按 Authorization 的 scheme 解析凭证：Bearer 为会话令牌，Signer 为签署链接令牌。
// websocket 升级请求可以用 ?token= 传会话令牌
func Auth(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, credential := credentials(c)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		principal, err := auth.Authenticate(scheme, credential)
		if err != nil {
			klog.V(6).Infof("auth failed for %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func credentials(c *gin.Context) (string, string) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		scheme, credential, ok := strings.Cut(header, " ")
		if !ok {
			return "", ""
		}
		return scheme, strings.TrimSpace(credential)
	}
	if isWebSocket(c.Request) {
		return service.SchemeSession, c.Query("token")
	}
	return "", ""
}

func isWebSocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// GetPrincipal 读取 Auth 写入的调用方
func GetPrincipal(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*service.Principal)
	return p
}

// SetPrincipal 测试或内部调用时注入调用方
func SetPrincipal(c *gin.Context, p *service.Principal) {
	c.Set(principalKey, p)
}

// RequireRoles 角色不在列表中返回 403
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if !principal.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// SelfOrRoles 允许访问自己的 :id，或者角色在列表中
func SelfOrRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal.HasRole(roles...) {
			c.Next()
			return
		}
		if principal != nil && principal.Kind == service.PrincipalSession && c.Param("id") == uintString(principal.UserID) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// RolesOrSigner 会话用户需要角色在列表中，签署者只能访问自己合同的 :id
func RolesOrSigner(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal != nil && principal.Kind == service.PrincipalSigner {
			if !principal.CanAccessContract(c.Param("id")) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
				return
			}
			c.Next()
			return
		}
		if !principal.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
