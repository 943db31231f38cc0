package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"skincare-ingredients/internal/api"
	"skincare-ingredients/internal/app"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/pkg/common"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg)
	startCancel()
	if err != nil {
		common.LogFatal("Failed to initialize application", zap.Error(err))
	}

	router, err := api.SetupRouter(cfg, api.Dependencies{
		Resolver:  application.Chemistry,
		Explainer: application.Explain,
		Admitter:  application.Limiter,
		Metrics:   application.Metrics,
		Checks:    application.Checks(),
	})
	if err != nil {
		common.LogFatal("Failed to set up router", zap.Error(err))
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	application.Close(ctx)

	common.LogInfo("Server exited")
}
