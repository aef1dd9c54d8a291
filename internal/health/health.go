package health

import (
	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"filebox/backend/internal/storage"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	repo   storage.FileRepository
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(repo storage.FileRepository, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		repo:   repo,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 存储介质检查：快照文件或数据库可读
	hc.health.AddReadinessCheck("store", func() error {
		return hc.repo.Health()
	})

	// goroutine 泄漏防护
	hc.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))
}

// LiveEndpoint 返回存活检查端点处理器（/healthz）
func (hc *HealthChecker) LiveEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		hc.health.LiveEndpoint(c.Writer, c.Request)
	}
}

// ReadyEndpoint 返回就绪检查端点处理器（/readyz）
func (hc *HealthChecker) ReadyEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		hc.health.ReadyEndpoint(c.Writer, c.Request)
	}
}
