package ingredient

import (
	"fmt"
	"sort"
)

// Role 成分在配方中的功能分類
type Role string

const (
	RoleHumectant    Role = "humectant"
	RoleEmollient    Role = "emollient"
	RoleOcclusive    Role = "occlusive"
	RolePreservative Role = "preservative"
	RoleFragrance    Role = "fragrance"
	RoleActive       Role = "active"
	RoleEmulsifier   Role = "emulsifier"
	RoleSupporting   Role = "supporting"
)

var validRoles = map[Role]bool{
	RoleHumectant:    true,
	RoleEmollient:    true,
	RoleOcclusive:    true,
	RolePreservative: true,
	RoleFragrance:    true,
	RoleActive:       true,
	RoleEmulsifier:   true,
	RoleSupporting:   true,
}

// ParseRole 驗證角色字串
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", fmt.Errorf("unknown ingredient role %q", s)
	}
	return r, nil
}

// KnowledgeEntry 人工整理的成分說明
type KnowledgeEntry struct {
	CanonicalName string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Role          Role     `yaml:"role"`
	Aliases       []string `yaml:"aliases"`
}

// KnowledgeBase 以標準名稱索引的成分知識庫，建立後不可變
type KnowledgeBase struct {
	normalizer *Normalizer
	entries    map[string]KnowledgeEntry
	index      map[string]string
}

// NewKnowledgeBase 建立知識庫，名稱與別名都經過正規化後建立索引
func NewKnowledgeBase(entries []KnowledgeEntry, n *Normalizer) *KnowledgeBase {
	kb := &KnowledgeBase{
		normalizer: n,
		entries:    make(map[string]KnowledgeEntry, len(entries)),
		index:      make(map[string]string, len(entries)*2),
	}
	for _, e := range entries {
		key := n.Normalize(e.CanonicalName)
		if key == "" {
			continue
		}
		e.Aliases = append([]string(nil), e.Aliases...)
		kb.entries[key] = e
		kb.index[key] = key
		for _, alias := range e.Aliases {
			if a := n.Normalize(alias); a != "" {
				if _, taken := kb.index[a]; !taken {
					kb.index[a] = key
				}
			}
		}
	}
	return kb
}

// Lookup 以任意寫法查詢成分
func (kb *KnowledgeBase) Lookup(name string) (KnowledgeEntry, bool) {
	if kb == nil {
		return KnowledgeEntry{}, false
	}
	key, ok := kb.index[kb.normalizer.Normalize(name)]
	if !ok {
		return KnowledgeEntry{}, false
	}
	return kb.entries[key], true
}

// Len 回傳條目數量
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.entries)
}

// Names 回傳所有標準名稱（已排序）
func (kb *KnowledgeBase) Names() []string {
	names := make([]string, 0, len(kb.entries))
	for k := range kb.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
