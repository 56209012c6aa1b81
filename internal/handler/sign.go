package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// SignRedirect 签署链接跳转到签署页面
func SignRedirect(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := url.Values{}
		q.Set("id", c.Param("id"))
		q.Set("token", c.Param("token"))
		c.Redirect(http.StatusFound, page+"?"+q.Encode())
	}
}
