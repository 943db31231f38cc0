package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skincare-ingredients/internal/api/handlers/health"
	ingredientHandler "skincare-ingredients/internal/api/handlers/ingredient"
	"skincare-ingredients/internal/api/middleware"
	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Resolver  chemistry.Resolver
	Explainer ingredientHandler.Explainer
	Admitter  middleware.Admitter
	Metrics   *telemetry.Metrics
	Checks    map[string]health.Check
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// 限流以 ClientIP 為鍵，只信任設定中的代理轉發的 X-Forwarded-For
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Limits.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Checks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	limiter := middleware.NewRateLimit(deps.Admitter, cfg.RateLimit, deps.Metrics)
	handler := ingredientHandler.NewHandler(deps.Resolver, deps.Explainer, limiter, cfg.Limits)

	// API 路由組
	api := router.Group("/api/v1")
	{
		ingredients := api.Group("/ingredients")
		{
			ingredients.POST("/resolve", handler.HandleResolve)
			ingredients.POST("/explain", handler.HandleExplain)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int("rate_limit_requests", cfg.RateLimit.Requests),
		zap.Duration("rate_limit_window", cfg.RateLimit.Window),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Limits.MaxBodyBytes),
		zap.Strings("trusted_proxies", cfg.Server.TrustedProxies),
	)

	return router, nil
}
