package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// IPRateLimiter 按客户端 IP 限流（令牌桶算法，进程内）。
//
// 用于保护口令登录和令牌签发路径不被暴力尝试；
// 单实例部署，无需分布式限流状态。
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	limit    rate.Limit
	burst    int
	log      *zap.Logger

	lastCleanup time.Time
}

// ipLimiterEntry 单个 IP 的限流条目
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter 创建 IP 限流器
//
// 参数:
//   - perMinute: 每分钟允许的请求数
//   - burst: 突发容量
func NewIPRateLimiter(perMinute int, burst int, log *zap.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		limiters:    make(map[string]*ipLimiterEntry),
		limit:       rate.Limit(float64(perMinute) / 60.0),
		burst:       burst,
		log:         log,
		lastCleanup: time.Now(),
	}
}

// Middleware 返回限流中间件
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.log.Warn("rate limit exceeded", zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// allow 检查指定 IP 是否被允许
func (rl *IPRateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// 定期清理长时间未出现的 IP，避免无界增长
	if now.Sub(rl.lastCleanup) > 10*time.Minute {
		for key, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(rl.limiters, key)
			}
		}
		rl.lastCleanup = now
	}

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{
			limiter: rate.NewLimiter(rl.limit, rl.burst),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}
