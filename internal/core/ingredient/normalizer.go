package ingredient

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// 清理規則（依序套用）
var (
	parentheticalPattern = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]`)
	strayBracketPattern  = regexp.MustCompile(`[()\[\]]`)
	percentPattern       = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:%|percent\b)`)
	leadingTypePattern   = regexp.MustCompile(`(?i)^\s*(?:types?|forms?)\s+of\s+`)
	embeddedTypePattern  = regexp.MustCompile(`(?i)\b(?:types?|forms?)\s+of\b`)
)

const edgePunctuation = ",;:.* \t"

// Normalizer 將成分標示字串轉換為標準名稱
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer 建立名稱正規化器。
// 別名表的鍵與目標都經過相同的清理流程，別名鏈會被收斂到最終目標，
// 環狀別名以字典序最小的成員作為標準名稱。
func NewNormalizer(aliases map[string]string) *Normalizer {
	cleaned := make(map[string]string, len(aliases))
	keys := make([]string, 0, len(aliases))
	for from, to := range aliases {
		k, v := clean(from), clean(to)
		if k == "" || v == "" || k == v {
			continue
		}
		if _, exists := cleaned[k]; !exists {
			keys = append(keys, k)
		}
		cleaned[k] = v
	}
	sort.Strings(keys)

	table := make(map[string]string, len(keys))
	for _, k := range keys {
		if target := resolveAlias(cleaned, k); target != k {
			table[k] = target
		}
	}
	return &Normalizer{aliases: table}
}

// resolveAlias 沿著別名鏈找到最終目標
func resolveAlias(table map[string]string, start string) string {
	visited := map[string]bool{}
	cur := start
	for {
		if visited[cur] {
			return smallestInCycle(table, cur)
		}
		visited[cur] = true
		next, ok := table[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}

func smallestInCycle(table map[string]string, member string) string {
	smallest := member
	for cur := table[member]; cur != member; cur = table[cur] {
		if cur < smallest {
			smallest = cur
		}
	}
	return smallest
}

// Normalize 回傳標準名稱；空白輸入回傳空字串
func (n *Normalizer) Normalize(raw string) string {
	name := clean(raw)
	if name == "" {
		return ""
	}
	if target, ok := n.aliases[name]; ok {
		return target
	}
	return name
}

// Aliases 回傳別名表的副本
func (n *Normalizer) Aliases() map[string]string {
	out := make(map[string]string, len(n.aliases))
	for k, v := range n.aliases {
		out[k] = v
	}
	return out
}

// clean 重複套用清理規則直到結果不再變化
func clean(raw string) string {
	name := norm.NFKC.String(raw)
	for i := 0; i < 8; i++ {
		next := cleanOnce(name)
		if next == name {
			break
		}
		name = next
	}
	return name
}

func cleanOnce(s string) string {
	for {
		stripped := parentheticalPattern.ReplaceAllString(s, " ")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strayBracketPattern.ReplaceAllString(s, " ")
	s = percentPattern.ReplaceAllString(s, " ")
	s = leadingTypePattern.ReplaceAllString(s, "")
	s = embeddedTypePattern.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.Trim(s, edgePunctuation)
}
