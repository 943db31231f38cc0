package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skincare-ingredients/internal/pkg/common"
)

const checkTimeout = 2 * time.Second

// Check 依賴檢查，回傳 nil 表示正常
type Check func(ctx context.Context) error

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// ReadinessResponse 就緒檢查響應
type ReadinessResponse struct {
	Status string            `json:"status"`
	Code   string            `json:"code,omitempty"`
	Error  string            `json:"error,omitempty"`
	Checks map[string]string `json:"checks"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	started time.Time
	checks  map[string]Check
}

// NewHandler 創建健康檢查處理器；checks 為 nil 的項目會被忽略
func NewHandler(version string, checks map[string]Check) *Handler {
	active := make(map[string]Check, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	return &Handler{version: version, started: time.Now(), checks: active}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	})
}

// ReadinessCheck 就緒檢查：逐一檢查資料庫與 Redis
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.String("check", name), zap.Error(err))
			resp.Status = "not_ready"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ready" {
		resp.Code = common.ErrServiceUnavailable.Code
		resp.Error = common.ErrServiceUnavailable.Message
		c.JSON(common.ErrServiceUnavailable.Status, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
