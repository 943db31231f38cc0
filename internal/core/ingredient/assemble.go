package ingredient

// 解析結果來源
const (
	SourceLocal = "local"
	SourceCache = "cache"
	SourceAPI   = "api"
	SourceError = "error"
)

// 說明結果來源
const (
	SourceKnowledge = "knowledge"
	SourceAI        = "ai"
	SourceFallback  = "fallback"
)

// Assemble 依原始輸入順序展開結果，重複的輸入各自得到一筆。
// 沒有對應結果的輸入由 missing 產生。
func Assemble[T any](b *Batch, results map[string]T, missing func(Input) T) []T {
	out := make([]T, len(b.Inputs))
	for i, in := range b.Inputs {
		if r, ok := results[in.Canonical]; ok && in.Canonical != "" {
			out[i] = r
			continue
		}
		out[i] = missing(in)
	}
	return out
}
