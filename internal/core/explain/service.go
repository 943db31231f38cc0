package explain

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skincare-ingredients/internal/core/chemistry"
	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/infrastructure/store"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

const emptyNameExplanation = "No ingredient name was provided."

// Item 說明請求中的單一成分
type Item struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Explanation 單一輸入的說明結果
type Explanation struct {
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Role            ingredient.Role `json:"role"`
	Explanation     string          `json:"explanation"`
	MolecularWeight *float64        `json:"molecular_weight"`
	Source          string          `json:"source"`
}

// Cache 說明快取
type Cache interface {
	GetMany(ctx context.Context, names []string) (map[string]store.ExplanationRecord, error)
	UpsertMany(ctx context.Context, records []store.ExplanationRecord) error
}

// Service 成分說明服務
type Service struct {
	lexicon   *ingredient.Lexicon
	resolver  chemistry.Resolver
	cache     Cache
	generator *Generator
	metrics   *telemetry.Metrics
}

// NewService 創建成分說明服務；resolver 與 cache 可為 nil
func NewService(lex *ingredient.Lexicon, resolver chemistry.Resolver, cache Cache, generator *Generator, metrics *telemetry.Metrics) *Service {
	return &Service{
		lexicon:   lex,
		resolver:  resolver,
		cache:     cache,
		generator: generator,
		metrics:   metrics,
	}
}

// Explain 為每個輸入產生一筆說明，順序與輸入相同。
// 化學資料、快取或語言模型失敗都會降級處理，不會讓整批失敗。
func (s *Service) Explain(ctx context.Context, items []Item) ([]Explanation, error) {
	start := time.Now()
	raws := make([]string, len(items))
	for i, item := range items {
		raws[i] = item.Name
	}
	batch := ingredient.Group(raws, s.lexicon.Normalizer)

	weights := s.molecularWeights(ctx, batch)

	roles := make(map[string]ingredient.Role, len(batch.Unique))
	for _, name := range batch.Unique {
		roles[name] = ClassifyRole(name, s.lexicon.Knowledge, weights[name])
	}

	results := make(map[string]Explanation, len(batch.Unique))
	misses := s.readCache(ctx, batch.Unique, roles, results)

	if len(misses) > 0 {
		subjects := make([]Subject, len(misses))
		for i, name := range misses {
			subjects[i] = Subject{Name: name, Role: roles[name], MolecularWeight: weights[name]}
		}
		generated := s.generator.Generate(ctx, subjects)

		records := make([]store.ExplanationRecord, 0, len(generated))
		for _, name := range misses {
			gen := generated[name]
			results[name] = Explanation{Role: gen.Role, Explanation: gen.Text, Source: gen.Source}
			records = append(records, store.ExplanationRecord{
				Name:   name,
				Role:   string(gen.Role),
				Text:   gen.Text,
				Source: gen.Source,
			})
		}
		s.writeCache(ctx, records)
	}

	out := ingredient.Assemble(batch, results, func(in ingredient.Input) Explanation {
		return Explanation{
			Role:        ingredient.RoleSupporting,
			Explanation: emptyNameExplanation,
			Source:      ingredient.SourceFallback,
		}
	})
	for i := range out {
		out[i].Name = items[i].Name
		out[i].Category = items[i].Category
		out[i].MolecularWeight = weights[batch.Inputs[i].Canonical]
		s.metrics.RecordSource(ctx, "explain", out[i].Source)
	}

	common.LogInfo("成分說明完成",
		zap.Int("inputs", len(items)),
		zap.Int("unique", len(batch.Unique)),
		zap.Int("generated", len(misses)),
		zap.Duration("耗時", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// molecularWeights 透過解析流程取得分子量；失敗時視為沒有分子資料
func (s *Service) molecularWeights(ctx context.Context, batch *ingredient.Batch) map[string]*float64 {
	weights := make(map[string]*float64, len(batch.Unique))
	if s.resolver == nil || len(batch.Unique) == 0 {
		return weights
	}
	results, err := s.resolver.Resolve(ctx, batch.Unique, false)
	if err != nil {
		common.LogWarn("取得分子資料失敗，略過分子資訊", zap.Error(err))
		return weights
	}
	for _, r := range results {
		if r.Data == nil || r.SearchedName == "" {
			continue
		}
		mw := r.Data.MolecularWeight
		weights[r.SearchedName] = &mw
	}
	return weights
}

// readCache 讀取可用的快取說明，回傳未命中的名稱
func (s *Service) readCache(ctx context.Context, names []string, roles map[string]ingredient.Role, results map[string]Explanation) []string {
	if s.cache == nil || len(names) == 0 {
		return names
	}
	records, err := s.cache.GetMany(ctx, names)
	if err != nil {
		common.LogWarn("讀取說明快取失敗，全部重新產生", zap.Error(err))
		return names
	}

	misses := make([]string, 0, len(names))
	for _, name := range names {
		rec, ok := records[name]
		if !ok || !IsUsable(rec.Text) {
			misses = append(misses, name)
			continue
		}
		role, err := ingredient.ParseRole(rec.Role)
		if err != nil {
			role = roles[name]
		}
		results[name] = Explanation{Role: role, Explanation: rec.Text, Source: rec.Source}
	}
	common.LogCacheHit("explanation", len(names)-len(misses))
	common.LogCacheMiss("explanation", len(misses))
	return misses
}

func (s *Service) writeCache(ctx context.Context, records []store.ExplanationRecord) {
	if s.cache == nil || len(records) == 0 || ctx.Err() != nil {
		return
	}
	if err := s.cache.UpsertMany(ctx, records); err != nil {
		common.LogWarn("寫入說明快取失敗", zap.Int("count", len(records)), zap.Error(err))
	}
}
