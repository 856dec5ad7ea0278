package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/auth"
)

const (
	// TokenCookie 浏览器客户端保存 JWT 的 cookie
	TokenCookie = "token"
	// LoginPath 匿名访问受保护路由时跳转的登录页
	LoginPath = "/auth/login/"

	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// Auth 从 bearer token 或 token cookie 识别调用方
// 没有有效 token 的请求以匿名身份继续
func Auth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(TokenCookie)
		}
		if raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxUsername, claims.Username)
			}
		}
		c.Next()
	}
}

// LoginRequired 匿名调用方跳转到登录页，原地址放在 ?next= 中
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CallerID(c); !ok {
			target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerID 已认证用户的 id
func CallerID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}

// CallerUsername 已认证用户的用户名
func CallerUsername(c *gin.Context) string { return c.GetString(ctxUsername) }

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
