package chemistry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

const emptyNameMessage = "empty ingredient name"

// Service 成分化學識別服務
type Service struct {
	lexicon *ingredient.Lexicon
	tier    *tier
	fetcher *fetcher
	metrics *telemetry.Metrics
}

// NewService 創建化學識別服務
func NewService(lex *ingredient.Lexicon, cache Store, client Client, cfg config.PubChemConfig, metrics *telemetry.Metrics) *Service {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 4
	}
	return &Service{
		lexicon: lex,
		tier:    &tier{lexicon: lex, store: cache},
		fetcher: &fetcher{
			client:     client,
			store:      cache,
			batchSize:  batchSize,
			batchDelay: cfg.BatchDelay,
			retryDelay: cfg.RetryDelay,
			metrics:    metrics,
			sleep:      sleepContext,
		},
		metrics: metrics,
	}
}

// Resolve 正規化、去重、查快取、查詢外部資料，最後依原始順序組合結果。
// 單一成分失敗只影響該筆結果。
func (s *Service) Resolve(ctx context.Context, raws []string, forceExternal bool) ([]Result, error) {
	start := time.Now()
	batch := ingredient.Group(raws, s.lexicon.Normalizer)

	results, misses := s.tier.classify(ctx, batch.Unique, forceExternal)
	for name, r := range s.fetcher.fetch(ctx, misses) {
		results[name] = r
	}

	out := ingredient.Assemble(batch, results, func(in ingredient.Input) Result {
		return Result{Source: ingredient.SourceError, Message: emptyNameMessage}
	})
	for i := range out {
		out[i].Name = batch.Inputs[i].Raw
		s.metrics.RecordSource(ctx, "resolve", out[i].Source)
	}

	common.LogInfo("成分解析完成",
		zap.Int("inputs", len(raws)),
		zap.Int("unique", len(batch.Unique)),
		zap.Int("fetched", len(misses)),
		zap.Bool("force_external", forceExternal),
		zap.Duration("耗時", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
