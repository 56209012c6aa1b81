package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/service"
)

func newEngine(t *testing.T) (*gin.Engine, service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, "mw-secret", time.Hour)

	r := gin.New()
	r.Use(Metrics())
	authed := r.Group("", Auth(auth))
	authed.GET("/whoami", func(c *gin.Context) {
		p := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"username": p.Username, "kind": p.Kind})
	})
	authed.GET("/admin", RequireRoles(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	authed.GET("/contracts/:id", RolesOrSigner(model.RoleAdmin, model.RoleStaff), func(c *gin.Context) { c.Status(http.StatusOK) })
	authed.GET("/users/:id", SelfOrRoles(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	authed.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, auth
}

func do(r *gin.Engine, path, authHeader string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthSchemes(t *testing.T) {
	r, auth := newEngine(t)
	staff, err := auth.IssueToken(&model.User{ID: 3, Username: "sara", Role: model.RoleStaff})
	require.NoError(t, err)
	signing := auth.IssueSigningToken("CN-2024-1", "c@example.com")

	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Bearer "+signing).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", "Signer "+staff).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", staff).Code)

	w := do(r, "/whoami", "Bearer "+staff)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"session"`)

	w = do(r, "/whoami", "Signer "+signing)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"signer"`)
}

func TestRolesAndScopes(t *testing.T) {
	r, auth := newEngine(t)
	staff, _ := auth.IssueToken(&model.User{ID: 3, Username: "sara", Role: model.RoleStaff})
	admin, _ := auth.IssueToken(&model.User{ID: 1, Username: "root", Role: model.RoleAdmin})
	signing := auth.IssueSigningToken("CN-2024-1", "c@example.com")

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+staff).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", "Bearer "+admin).Code)

	assert.Equal(t, http.StatusOK, do(r, "/contracts/CN-2024-1", "Signer "+signing).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/contracts/CN-2024-2", "Signer "+signing).Code)
	assert.Equal(t, http.StatusOK, do(r, "/contracts/CN-2024-2", "Bearer "+staff).Code)

	assert.Equal(t, http.StatusOK, do(r, "/users/3", "Bearer "+staff).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/users/4", "Bearer "+staff).Code)
	assert.Equal(t, http.StatusOK, do(r, "/users/4", "Bearer "+admin).Code)
}

func TestWebSocketQueryToken(t *testing.T) {
	r, auth := newEngine(t)
	staff, _ := auth.IssueToken(&model.User{ID: 3, Username: "sara", Role: model.RoleStaff})

	assert.Equal(t, http.StatusOK, do(r, "/ws?token="+staff, "", "Upgrade", "websocket", "Connection", "Upgrade").Code)
	// 非升级请求不接受 query token
	assert.Equal(t, http.StatusUnauthorized, do(r, "/ws?token="+staff, "").Code)
}

func TestRolesOrSigner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, "mw-secret", time.Hour)
	r := gin.New()
	r.GET("/contracts/:id", Auth(auth), RolesOrSigner(model.RoleAdmin, model.RoleStaff), func(c *gin.Context) { c.Status(http.StatusOK) })

	staff, err := auth.IssueToken(&model.User{ID: 3, Username: "sara", Role: model.RoleStaff})
	require.NoError(t, err)
	signerUser, err := auth.IssueToken(&model.User{ID: 4, Username: "sam", Role: model.RoleSigner})
	require.NoError(t, err)
	signing := auth.IssueSigningToken("CN-2024-1", "c@example.com")

	assert.Equal(t, http.StatusOK, do(r, "/contracts/CN-2024-9", "Bearer "+staff).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/contracts/CN-2024-9", "Bearer "+signerUser).Code)
	assert.Equal(t, http.StatusOK, do(r, "/contracts/CN-2024-1", "Signer "+signing).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/contracts/CN-2024-9", "Signer "+signing).Code)
}
