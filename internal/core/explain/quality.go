package explain

import (
	"strings"
	"unicode/utf8"
)

const minExplanationLength = 20

var boilerplatePhrases = append([]string{
	"no description available",
	"description not available",
	"information not available",
	"unknown ingredient",
	"commonly used in cosmetics",
	"used in cosmetic products",
	"no information",
	"not enough information",
	"i'm sorry",
	"as an ai",
}, templatePhrases()...)

// IsUsable 判斷快取中的說明是否可直接使用；空白、過短或模板化內容視為未命中
func IsUsable(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minExplanationLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}
