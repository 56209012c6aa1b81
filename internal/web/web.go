package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Setup 从 publicDir 提供静态页面（签署页等），未知的 /api 路径返回 JSON 404
func Setup(r *gin.Engine, publicDir string) {
	r.NoRoute(gzip.Gzip(gzip.DefaultCompression), func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		name := filepath.Join(publicDir, filepath.FromSlash(path.Clean("/"+p)))
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			name = filepath.Join(name, "index.html")
		}
		if _, err := os.Stat(name); err != nil {
			c.String(http.StatusNotFound, "not found")
			return
		}

		c.File(name)
	})
}
