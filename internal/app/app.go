package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"skincare-ingredients/internal/api/handlers/health"
	"skincare-ingredients/internal/core/ai/openrouter"
	"skincare-ingredients/internal/core/ai/provider"
	"skincare-ingredients/internal/core/ai/service"
	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/core/explain"
	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/core/ratelimit"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/infrastructure/pubchem"
	"skincare-ingredients/internal/infrastructure/redis"
	"skincare-ingredients/internal/infrastructure/store"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

// App 組裝完成的服務與其連線資源
type App struct {
	Config    *config.Config
	Lexicon   *ingredient.Lexicon
	DB        *sqlx.DB
	Redis     *goredis.Client
	Metrics   *telemetry.Metrics
	Chemistry *chemistry.Service
	Explain   *explain.Service
	Limiter   *ratelimit.Limiter

	chain             *service.Chain
	shutdownTelemetry func(context.Context) error
}

// LoadLexicon 載入詞典；設定覆寫目錄時從磁碟讀取
func LoadLexicon(cfg config.LexiconConfig) (*ingredient.Lexicon, error) {
	if cfg.Dir == "" {
		return ingredient.DefaultLexicon()
	}
	return ingredient.LoadLexicon(os.DirFS(cfg.Dir))
}

// Providers 依優先順序建立已設定的語言模型提供者
func Providers(cfg *config.Config) []provider.Provider {
	var providers []provider.Provider
	for _, llm := range []config.LLMConfig{cfg.OpenRouter, cfg.FallbackLLM} {
		client, err := openrouter.NewClient(llm)
		if err != nil {
			if errors.Is(err, openrouter.ErrNotConfigured) {
				common.LogWarn("AI provider not configured, skipping", zap.String("provider", llm.Name))
				continue
			}
			common.LogError("Failed to initialize AI provider", zap.String("provider", llm.Name), zap.Error(err))
			continue
		}
		providers = append(providers, client)
	}
	return providers
}

// New 依設定建立連線與服務；失敗時釋放已建立的資源
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
		Interval: cfg.Telemetry.Interval,
	})
	if err != nil {
		return nil, err
	}
	a.shutdownTelemetry = shutdown

	if a.Metrics, err = telemetry.NewMetrics(); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	if a.Lexicon, err = LoadLexicon(cfg.Lexicon); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}

	if a.DB, err = store.Open(ctx, cfg.Database); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := store.Migrate(ctx, a.DB); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	if a.Redis, err = redis.NewClient(ctx, cfg.Redis); err != nil {
		// 限流採 fail-open，Redis 不可用時仍可提供服務
		common.LogWarn("Redis unavailable, rate limiting disabled", zap.Error(err))
		a.Redis = nil
	}
	var scripter goredis.Scripter
	if a.Redis != nil {
		scripter = a.Redis
	}
	a.Limiter = ratelimit.NewLimiter(scripter)

	a.Chemistry = chemistry.NewService(
		a.Lexicon,
		store.NewChemistryCache(a.DB),
		pubchem.NewClient(cfg.PubChem),
		cfg.PubChem,
		a.Metrics,
	)

	a.chain = service.NewChain(a.Metrics, Providers(cfg)...)
	generator := explain.NewGenerator(a.Lexicon, a.chain, cfg.Explain.BatchSize, cfg.Explain.MaxSentences)
	a.Explain = explain.NewService(a.Lexicon, a.Chemistry, store.NewExplanationCache(a.DB), generator, a.Metrics)

	common.LogInfo("Services initialized",
		zap.Int("knowledge_entries", a.Lexicon.Knowledge.Len()),
		zap.Int("ai_providers", a.chain.Len()),
		zap.Bool("redis", a.Redis != nil),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	return a, nil
}

// Checks 就緒檢查項目
func (a *App) Checks() map[string]health.Check {
	checks := map[string]health.Check{
		"postgres": a.DB.PingContext,
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close 依建立的相反順序釋放資源
func (a *App) Close(ctx context.Context) {
	if a.chain != nil {
		if err := a.chain.Close(); err != nil {
			common.LogWarn("Failed to close AI providers", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			common.LogWarn("Failed to close Redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			common.LogWarn("Failed to close database", zap.Error(err))
		}
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			common.LogWarn("Failed to shutdown telemetry", zap.Error(err))
		}
	}
}
