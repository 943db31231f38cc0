package common

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON 文字中找不到任何完整的 JSON 結構
var ErrNoJSON = errors.New("no JSON structure found")

var unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSON 從模型輸出中依序嘗試每個 JSON 陣列或物件，回傳第一個被 accept 接受的。
// 前後的說明文字與 markdown 圍欄會被忽略；鍵未加引號時嘗試修補一次。accept 為 nil 時接受任何結構。
func ExtractJSON(raw string, accept func(json.RawMessage) bool) (json.RawMessage, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		if msg, ok := decodeFirstValue(raw[i:]); ok && (accept == nil || accept(msg)) {
			return msg, nil
		}
		if msg, ok := decodeFirstValue(QuoteJSONKeys(raw[i:])); ok && (accept == nil || accept(msg)) {
			return msg, nil
		}
	}
	return nil, ErrNoJSON
}

func decodeFirstValue(s string) (json.RawMessage, bool) {
	var msg json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&msg); err != nil {
		return nil, false
	}
	return msg, true
}
