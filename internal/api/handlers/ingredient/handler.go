package ingredient

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skincare-ingredients/internal/api/middleware"
	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/core/explain"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/pkg/common"
)

// 限流端點名稱
const (
	EndpointResolve = "resolve-ingredients"
	EndpointExplain = "explain-ingredients"
)

// Explainer 成分說明服務
type Explainer interface {
	Explain(ctx context.Context, items []explain.Item) ([]explain.Explanation, error)
}

// Handler 成分處理器
type Handler struct {
	resolver  chemistry.Resolver
	explainer Explainer
	limiter   *middleware.RateLimit
	limits    limits
}

// NewHandler 創建成分處理器
func NewHandler(resolver chemistry.Resolver, explainer Explainer, limiter *middleware.RateLimit, cfg config.LimitsConfig) *Handler {
	return &Handler{
		resolver:  resolver,
		explainer: explainer,
		limiter:   limiter,
		limits:    newLimits(cfg),
	}
}

// ResolveResponse 成分解析響應
type ResolveResponse struct {
	Results []chemistry.Result `json:"results"`
}

// ExplainResponse 成分說明響應
type ExplainResponse struct {
	Results []explain.Explanation `json:"results"`
}

// HandleResolve 處理成分解析請求
func (h *Handler) HandleResolve(c *gin.Context) {
	var req ResolveRequest
	if err := bindJSON(c, &req); err != nil {
		common.WriteError(c, err)
		return
	}
	names := req.Ingredients
	if err := h.limits.check(names); err != nil {
		common.WriteError(c, err)
		return
	}

	if !h.limiter.Allow(c, EndpointResolve) {
		return
	}

	results, err := h.resolver.Resolve(c.Request.Context(), names, req.ForceExternal)
	if err != nil {
		common.LogError("Resolve ingredients failed",
			zap.Error(err),
			zap.Int("count", len(names)),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResolveResponse{Results: results})
}

// HandleExplain 處理成分說明請求
func (h *Handler) HandleExplain(c *gin.Context) {
	var req ExplainRequest
	if err := bindJSON(c, &req); err != nil {
		common.WriteError(c, err)
		return
	}
	items, err := h.limits.explainItems(req.Ingredients)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if !h.limiter.Allow(c, EndpointExplain) {
		return
	}

	results, err := h.explainer.Explain(c.Request.Context(), items)
	if err != nil {
		common.LogError("Explain ingredients failed",
			zap.Error(err),
			zap.Int("count", len(items)),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExplainResponse{Results: results})
}
