package chemistry

import (
	"context"

	"go.uber.org/zap"

	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/pkg/common"
)

const commonIngredientMessage = "common ingredient, no external lookup"

// tier 常見成分清單與持久快取兩層
type tier struct {
	lexicon *ingredient.Lexicon
	store   Store
}

// classify 依序套用常見成分清單與快取，回傳命中結果及需外部查詢的名稱（保持原順序）
func (t *tier) classify(ctx context.Context, names []string, forceExternal bool) (map[string]Result, []string) {
	hits := make(map[string]Result, len(names))
	candidates := make([]string, 0, len(names))

	for _, name := range names {
		if !forceExternal && t.lexicon.IsCommon(name) {
			hits[name] = Result{
				SearchedName: name,
				Source:       ingredient.SourceLocal,
				Message:      commonIngredientMessage,
			}
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 || t.store == nil {
		return hits, candidates
	}

	rows, err := t.store.GetMany(ctx, candidates)
	if err != nil {
		// 快取讀取失敗時全部視為未命中
		common.LogWarn("化學資料快取讀取失敗",
			zap.Error(err),
			zap.Int("names", len(candidates)),
		)
		return hits, candidates
	}

	misses := make([]string, 0, len(candidates))
	for _, name := range candidates {
		rec, ok := rows[name]
		if !ok {
			misses = append(misses, name)
			continue
		}
		hits[name] = Result{
			SearchedName: name,
			Data:         fromRecord(rec),
			Source:       ingredient.SourceCache,
		}
	}

	common.LogCacheHit("chemistry", len(candidates)-len(misses))
	common.LogCacheMiss("chemistry", len(misses))
	return hits, misses
}
