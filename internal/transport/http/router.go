package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filebox/backend/internal/auth"
	jwtpkg "filebox/backend/internal/auth/jwt"
	"filebox/backend/internal/config"
	"filebox/backend/internal/health"
	"filebox/backend/internal/middleware"
	"filebox/backend/internal/monitoring"
	"filebox/backend/internal/service"
	"filebox/backend/internal/token"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	FileService   *service.FileService
	TokenService  *token.Service
	AuthService   *auth.Service
	JWTManager    *jwtpkg.Manager
	Metrics       *monitoring.Metrics
	HealthChecker *health.HealthChecker
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.NewMonitoringMiddleware(deps.Metrics).HTTPMetrics())

	// 全局请求体大小限制
	router.Use(middleware.BodySizeLimit(middleware.UploadBodyLimit))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	authHandler := NewAuthHandler(deps.AuthService, deps.JWTManager, deps.Logger)
	fileHandler := NewFileHandler(deps.FileService, deps.Metrics, deps.Logger)
	directHandler := NewDirectHandler(deps.FileService, deps.TokenService, deps.Metrics, deps.Logger)

	// 创建中间件
	sessionAuth := middleware.NewSessionAuth(deps.JWTManager, deps.Logger)

	// 口令登录和令牌签发是暴力尝试的目标，单独限流
	loginRateLimit := middleware.NewIPRateLimiter(10, 5, deps.Logger)
	tokenRateLimit := middleware.NewIPRateLimiter(60, 20, deps.Logger)

	// 运维端点
	router.GET("/healthz", deps.HealthChecker.LiveEndpoint())
	router.GET("/readyz", deps.HealthChecker.ReadyEndpoint())
	router.GET("/metrics", deps.Metrics.Handler())

	v1 := router.Group("/v1")
	{
		// 认证
		v1.POST("/auth/login", middleware.BodySizeLimit(middleware.SmallBodyLimit), loginRateLimit.Middleware(), authHandler.Login)
		v1.POST("/auth/logout", authHandler.Logout)

		// 内容端点缓存友好、以记录 ID 为 key，不要求会话
		v1.GET("/files/:id/content", fileHandler.Content)

		// 免会话直链访问（能力令牌门禁）
		v1.GET("/direct/:id", directHandler.Direct)

		// 会话认证路由
		authed := v1.Group("")
		authed.Use(sessionAuth.RequireSession())
		{
			authed.POST("/files", fileHandler.Upload)
			authed.GET("/files", fileHandler.List)
			authed.GET("/files/:id", fileHandler.Get)
			authed.DELETE("/files/:id", fileHandler.Delete)
			authed.POST("/files/:id/token", tokenRateLimit.Middleware(), directHandler.IssueToken)
		}
	}

	return router
}
