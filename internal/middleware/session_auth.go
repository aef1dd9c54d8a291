package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filebox/backend/internal/auth/jwt"
)

// SessionAuth 会话认证中间件
type SessionAuth struct {
	jwtManager *jwt.Manager
	log        *zap.Logger
}

// NewSessionAuth 创建会话认证中间件
func NewSessionAuth(jwtManager *jwt.Manager, log *zap.Logger) *SessionAuth {
	return &SessionAuth{
		jwtManager: jwtManager,
		log:        log,
	}
}

// RequireSession 要求有效的会话令牌
func (sa *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sa.extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		claims, err := sa.jwtManager.ValidateSession(token)
		if err != nil {
			sa.log.Warn("invalid session token",
				zap.String("error", err.Error()),
				zap.String("ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session",
			})
			c.Abort()
			return
		}

		c.Set("session", claims.Subject)

		c.Next()
	}
}

// extractToken 从请求中提取会话令牌
func (sa *SessionAuth) extractToken(c *gin.Context) string {
	// 1. 从 Authorization header 提取
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	// 2. 从 cookie 提取
	token, err := c.Cookie("session_token")
	if err == nil && token != "" {
		return token
	}

	return ""
}
