package ingredient

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

const (
	aliasesFile   = "aliases.yaml"
	knowledgeFile = "knowledge.yaml"
	commonFile    = "common.yaml"
)

// Lexicon 啟動時建立一次的靜態詞典集合：別名表、知識庫與常見成分清單
type Lexicon struct {
	Normalizer *Normalizer
	Knowledge  *KnowledgeBase
	common     map[string]bool
}

type aliasesDoc struct {
	Aliases map[string]string `yaml:"aliases"`
}

type knowledgeDoc struct {
	Entries []KnowledgeEntry `yaml:"entries"`
}

type commonDoc struct {
	Common []string `yaml:"common"`
}

// NewLexicon 以記憶體中的資料建立詞典
func NewLexicon(aliases map[string]string, entries []KnowledgeEntry, common []string) *Lexicon {
	n := NewNormalizer(aliases)
	set := make(map[string]bool, len(common))
	for _, c := range common {
		if key := n.Normalize(c); key != "" {
			set[key] = true
		}
	}
	return &Lexicon{
		Normalizer: n,
		Knowledge:  NewKnowledgeBase(entries, n),
		common:     set,
	}
}

// DefaultLexicon 載入內嵌的預設詞典
func DefaultLexicon() (*Lexicon, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, err
	}
	return LoadLexicon(sub)
}

// LoadLexicon 從檔案系統載入詞典；缺少的檔案改用內嵌的預設版本
func LoadLexicon(fsys fs.FS) (*Lexicon, error) {
	var a aliasesDoc
	if err := readYAML(fsys, aliasesFile, &a); err != nil {
		return nil, err
	}
	var k knowledgeDoc
	if err := readYAML(fsys, knowledgeFile, &k); err != nil {
		return nil, err
	}
	var c commonDoc
	if err := readYAML(fsys, commonFile, &c); err != nil {
		return nil, err
	}

	for i, e := range k.Entries {
		if e.CanonicalName == "" {
			return nil, fmt.Errorf("%s: entry %d has no name", knowledgeFile, i)
		}
		if _, err := ParseRole(string(e.Role)); err != nil {
			return nil, fmt.Errorf("%s: entry %q: %w", knowledgeFile, e.CanonicalName, err)
		}
	}

	return NewLexicon(a.Aliases, k.Entries, c.Common), nil
}

func readYAML(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = defaultData.ReadFile("data/" + name)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// IsCommon 判斷標準名稱是否在常見成分清單中
func (l *Lexicon) IsCommon(canonical string) bool {
	return l.common[canonical]
}
