package httptransport

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filebox/backend/internal/monitoring"
	"filebox/backend/internal/service"
	"filebox/backend/internal/storage"
	"filebox/backend/internal/token"
)

// maxTokenTTL 单次签发允许的最长有效期
const maxTokenTTL = 24 * time.Hour

// DirectHandler 处理能力令牌签发与免会话直链访问。
//
// 签发路径位于会话认证之后；校验路径不要求会话——令牌本身
// 就是访问单条记录敏感定位信息的完整凭证。
type DirectHandler struct {
	files   *service.FileService // 文件业务服务
	tokens  *token.Service       // 能力令牌服务
	metrics *monitoring.Metrics  // 监控指标
	log     *zap.Logger          // 结构化日志记录器
}

// NewDirectHandler 创建直链访问处理器实例
func NewDirectHandler(files *service.FileService, tokens *token.Service, metrics *monitoring.Metrics, log *zap.Logger) *DirectHandler {
	return &DirectHandler{
		files:   files,
		tokens:  tokens,
		metrics: metrics,
		log:     log,
	}
}

type issueTokenRequest struct {
	TTLSeconds int64 `json:"ttlSeconds"` // 可选；缺省使用服务默认有效期
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` // Unix 秒
}

// IssueToken 为指定记录签发能力令牌
//
// 只为存在的记录签发；记录随后被删除时令牌自然失效
// （校验通过后仍查不到记录，返回 404）。
func (h *DirectHandler) IssueToken(c *gin.Context) {
	id := c.Param("id")

	// 确认记录存在，避免给垃圾 ID 签发令牌
	if _, err := h.files.Get(id); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			NotFound(c, MsgFileNotFound)
			return
		}
		h.log.Error("token issue precheck failed", zap.String("id", id), zap.Error(err))
		InternalError(c, MsgInternalError)
		return
	}

	var req issueTokenRequest
	// 请求体可选：空体走默认有效期
	_ = c.ShouldBindJSON(&req)

	var issued token.Issued
	switch {
	case req.TTLSeconds < 0:
		BadRequest(c, MsgInvalidRequest)
		return
	case req.TTLSeconds == 0:
		issued = h.tokens.IssueDefault(id)
	case time.Duration(req.TTLSeconds)*time.Second > maxTokenTTL:
		BadRequest(c, MsgInvalidRequest)
		return
	default:
		issued = h.tokens.Issue(id, time.Duration(req.TTLSeconds)*time.Second)
	}

	h.metrics.TokensIssued.Inc()
	h.log.Info("capability token issued",
		zap.String("id", id),
		zap.Int64("expires_at", issued.ExpiresAt),
	)

	Success(c, issueTokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// Direct 免会话直链访问
//
// 校验 query 参数中的能力令牌后，将请求重定向到上游存储的
// 直接下载地址。令牌绑定单条记录，跨记录使用一律拒绝。
func (h *DirectHandler) Direct(c *gin.Context) {
	id := c.Param("id")
	tok := c.Query("token")

	if !h.tokens.Verify(tok, id) {
		h.metrics.TokenVerifyFailed.Inc()
		h.log.Warn("capability token rejected",
			zap.String("id", id),
			zap.String("ip", c.ClientIP()),
		)
		Forbidden(c, MsgTokenInvalid)
		return
	}

	h.metrics.TokenVerifySuccess.Inc()

	directURL, err := h.files.DirectURL(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			NotFound(c, MsgFileNotFound)
			return
		}
		h.log.Error("direct url resolve failed", zap.String("id", id), zap.Error(err))
		InternalError(c, MsgFileServeFailed)
		return
	}

	// 直链地址含上游凭证且会过期，禁止中间缓存
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, directURL)
}
