package explain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"skincare-ingredients/internal/core/ai/provider"
	"skincare-ingredients/internal/core/ai/service"
	"skincare-ingredients/internal/core/ingredient"
	"skincare-ingredients/internal/pkg/common"
)

// Completer 語言模型提供者鏈
type Completer interface {
	Complete(ctx context.Context, req *provider.Request, accept func(*provider.Response) error) (*service.Result, error)
}

// Subject 需要產生說明的成分
type Subject struct {
	Name            string
	Role            ingredient.Role
	MolecularWeight *float64
}

// Generated 產生的說明及其來源
type Generated struct {
	Role   ingredient.Role
	Text   string
	Source string
}

// Generator 說明產生器：知識庫 > 語言模型 > 模板
type Generator struct {
	lexicon      *ingredient.Lexicon
	chain        Completer
	batchSize    int
	maxSentences int
}

// NewGenerator 創建說明產生器；chain 可為 nil（一律使用模板）
func NewGenerator(lex *ingredient.Lexicon, chain Completer, batchSize, maxSentences int) *Generator {
	if batchSize <= 0 {
		batchSize = 8
	}
	if maxSentences <= 0 {
		maxSentences = 2
	}
	return &Generator{
		lexicon:      lex,
		chain:        chain,
		batchSize:    batchSize,
		maxSentences: maxSentences,
	}
}

// Generate 為每個成分產生一筆說明；不會回傳錯誤，失敗時改用模板
func (g *Generator) Generate(ctx context.Context, subjects []Subject) map[string]Generated {
	out := make(map[string]Generated, len(subjects))
	pending := make([]Subject, 0, len(subjects))

	for _, s := range subjects {
		if entry, ok := g.lexicon.Knowledge.Lookup(s.Name); ok {
			out[s.Name] = Generated{
				Role:   s.Role,
				Text:   TrimSentences(entry.Description, g.maxSentences),
				Source: ingredient.SourceKnowledge,
			}
			continue
		}
		pending = append(pending, s)
	}

	for start := 0; start < len(pending); start += g.batchSize {
		end := min(start+g.batchSize, len(pending))
		for name, gen := range g.generateBatch(ctx, pending[start:end]) {
			out[name] = gen
		}
	}
	return out
}

// generateBatch 一次請求產生一批說明；模型遺漏的成分改用模板
func (g *Generator) generateBatch(ctx context.Context, batch []Subject) map[string]Generated {
	out := make(map[string]Generated, len(batch))
	var parsed map[string]Entry

	if g.chain != nil && ctx.Err() == nil {
		accept := func(resp *provider.Response) error {
			entries, err := ParseEntries(resp.Content)
			if err != nil {
				return err
			}
			parsed = g.index(entries)
			return nil
		}
		res, err := g.chain.Complete(ctx, buildRequest(batch), accept)
		if err != nil {
			common.LogWarn("AI 說明產生失敗，改用模板",
				zap.Int("batch", len(batch)),
				zap.Error(err),
			)
			parsed = nil
		} else {
			common.LogDebug("AI 說明產生完成",
				zap.String("provider", res.Provider),
				zap.Int("attempts", res.Attempts),
				zap.Int("entries", len(parsed)),
			)
		}
	}

	for _, s := range batch {
		if e, ok := parsed[s.Name]; ok {
			text := TrimSentences(e.Explanation, g.maxSentences)
			if IsUsable(text) {
				out[s.Name] = Generated{Role: s.Role, Text: text, Source: ingredient.SourceAI}
				continue
			}
		}
		out[s.Name] = Generated{Role: s.Role, Text: Template(s.Name, s.Role), Source: ingredient.SourceFallback}
	}
	return out
}

// index 以標準名稱索引模型輸出
func (g *Generator) index(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		key := g.lexicon.Normalizer.Normalize(e.Name)
		if _, dup := m[key]; key != "" && !dup {
			m[key] = e
		}
	}
	return m
}

func buildRequest(batch []Subject) *provider.Request {
	var list strings.Builder
	for i, s := range batch {
		fmt.Fprintf(&list, "%d. %s (role: %s", i+1, s.Name, s.Role)
		if s.MolecularWeight != nil {
			fmt.Fprintf(&list, ", molecular weight: %.1f Da", *s.MolecularWeight)
		}
		list.WriteString(")\n")
	}

	prompt := fmt.Sprintf(`Explain each skincare ingredient below for a consumer reading a product label.
Requirements:
1. At most two short sentences per ingredient
2. Plain language, no medical claims
3. Describe what the ingredient does in the formula and for the skin
4. Keep the ingredient name exactly as given
5. Return only JSON, no markdown, no extra text
Return this JSON format:
[{"name":"ingredient name","explanation":"plain-language explanation"}]

Ingredients:
%s`, list.String())

	return &provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: "You are a cosmetic chemist who explains skincare ingredients in plain, accurate language."},
			{Role: "user", Content: prompt},
		},
	}
}

// TrimSentences 保留前 n 個句子並合併空白
func TrimSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}
