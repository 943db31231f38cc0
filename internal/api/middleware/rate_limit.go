package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skincare-ingredients/internal/core/ratelimit"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

// Admitter 固定視窗限流判定
type Admitter interface {
	Admit(ctx context.Context, endpoint, identifier string, maxRequests int, window time.Duration) (ratelimit.Decision, error)
}

// RateLimit 以客戶端 IP 與端點為單位的限流。
// 由處理器在請求驗證通過後呼叫，讓無效請求不消耗額度。
type RateLimit struct {
	admitter Admitter
	enabled  bool
	requests int
	window   time.Duration
	metrics  *telemetry.Metrics
}

// NewRateLimit 創建限流器
func NewRateLimit(admitter Admitter, cfg config.RateLimitConfig, metrics *telemetry.Metrics) *RateLimit {
	return &RateLimit{
		admitter: admitter,
		enabled:  cfg.Enabled,
		requests: cfg.Requests,
		window:   cfg.Window,
		metrics:  metrics,
	}
}

// Allow 判定是否放行；拒絕時已寫入 429 響應。
// 計數儲存不可用時放行並記錄警告（fail-open）。
func (r *RateLimit) Allow(c *gin.Context, endpoint string) bool {
	if r == nil || !r.enabled || r.admitter == nil {
		return true
	}

	ip := c.ClientIP()
	decision, err := r.admitter.Admit(c.Request.Context(), endpoint, ip, r.requests, r.window)
	if err != nil {
		common.LogWarn("Rate limit check failed, allowing request",
			zap.String("endpoint", endpoint),
			zap.String("ip", ip),
			zap.Error(err),
		)
		return true
	}

	r.metrics.RecordRateLimit(c.Request.Context(), endpoint, decision.Allowed)
	if decision.Allowed {
		return true
	}

	common.LogInfo("Rate limit exceeded",
		zap.String("endpoint", endpoint),
		zap.String("ip", ip),
		zap.Int64("count", decision.CurrentCount),
		zap.Int("retry_after", decision.RetryAfterSeconds),
	)
	common.WriteRateLimited(c, decision.RetryAfterSeconds)
	return false
}
