package httptransport

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filebox/backend/internal/auth"
	jwtpkg "filebox/backend/internal/auth/jwt"
)

// AuthHandler 处理会话认证相关的 HTTP 请求
type AuthHandler struct {
	authService *auth.Service   // 口令认证服务
	jwtManager  *jwtpkg.Manager // 会话令牌管理器
	log         *zap.Logger     // 结构化日志记录器
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService *auth.Service, jwtManager *jwtpkg.Manager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtManager:  jwtManager,
		log:         log,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"` // 秒
}

// Login 处理口令登录请求
//
// 口令校验通过后签发会话令牌，同时以 HttpOnly Cookie 下发，
// 便于浏览器客户端免头部携带。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	if err := h.authService.VerifyPassword(req.Password); err != nil {
		h.log.Warn("login rejected", zap.String("ip", c.ClientIP()))
		Unauthorized(c, MsgInvalidCredentials)
		return
	}

	session, err := h.jwtManager.GenerateSession()
	if err != nil {
		h.log.Error("failed to generate session token", zap.Error(err))
		InternalError(c, MsgInternalError)
		return
	}

	c.SetCookie("session_token", session.Token, int(session.ExpiresIn), "/", "", false, true)

	Success(c, sessionResponse{
		Token:     session.Token,
		ExpiresIn: session.ExpiresIn,
	})
}

// Logout 处理登出请求：清除会话 Cookie。
// 会话令牌本身无吊销机制，仅依赖过期。
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("session_token", "", -1, "/", "", false, true)
	Success(c, nil)
}
