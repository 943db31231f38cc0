package explain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"skincare-ingredients/internal/pkg/common"
)

// ErrMalformedOutput 模型輸出中沒有任何有效的說明
var ErrMalformedOutput = errors.New("malformed model output")

// Entry 模型產生的單筆說明
type Entry struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
	Role        string `json:"role,omitempty"`
}

func (e Entry) valid() bool {
	return strings.TrimSpace(e.Name) != "" && strings.TrimSpace(e.Explanation) != ""
}

// ParseEntries 依序嘗試輸出中的 JSON 陣列或物件，取第一個含有效說明的結構。
// 支援 [{...}]、{"results":[...]}、{"explanations":[...]}、單筆物件與 {名稱: 說明}。
func ParseEntries(raw string) ([]Entry, error) {
	var entries []Entry
	_, err := common.ExtractJSON(raw, func(msg json.RawMessage) bool {
		entries = validEntries(msg)
		return len(entries) > 0
	})
	if err != nil {
		return nil, fmt.Errorf("%w: no valid entries", ErrMalformedOutput)
	}
	return entries, nil
}

func validEntries(msg json.RawMessage) []Entry {
	var entries []Entry
	switch msg[0] {
	case '[':
		entries = decodeList(msg)
	case '{':
		entries = decodeObject(msg)
	}

	valid := entries[:0]
	for _, e := range entries {
		if !e.valid() {
			continue
		}
		e.Name = strings.TrimSpace(e.Name)
		e.Explanation = strings.TrimSpace(e.Explanation)
		valid = append(valid, e)
	}
	return valid
}

func decodeList(msg json.RawMessage) []Entry {
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func decodeObject(msg json.RawMessage) []Entry {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return nil
	}

	for _, key := range []string{"results", "explanations", "ingredients"} {
		if list, ok := fields[key]; ok && len(list) > 0 && list[0] == '[' {
			return decodeList(list)
		}
	}

	var single Entry
	if err := json.Unmarshal(msg, &single); err == nil && single.valid() {
		return []Entry{single}
	}

	// {名稱: 說明} 或 {名稱: {explanation: ...}}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		value := fields[name]
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			entries = append(entries, Entry{Name: name, Explanation: text})
			continue
		}
		var e Entry
		if err := json.Unmarshal(value, &e); err == nil {
			if e.Name == "" {
				e.Name = name
			}
			entries = append(entries, e)
		}
	}
	return entries
}
