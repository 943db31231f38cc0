package explain

import (
	"fmt"
	"strings"
	"unicode"

	"skincare-ingredients/internal/core/ingredient"
)

var roleTemplates = map[ingredient.Role]string{
	ingredient.RoleHumectant:    "%s is a humectant that draws moisture into the skin and helps keep it hydrated.",
	ingredient.RoleEmollient:    "%s is an emollient that softens and smooths the skin by filling in gaps between skin cells.",
	ingredient.RoleOcclusive:    "%s forms a protective layer on the skin that helps lock in moisture.",
	ingredient.RolePreservative: "%s is a preservative that keeps the product free from bacteria and mold.",
	ingredient.RoleFragrance:    "%s is added to give the product its scent and may irritate sensitive skin.",
	ingredient.RoleActive:       "%s is an active ingredient included for a targeted effect on the skin.",
	ingredient.RoleEmulsifier:   "%s is an emulsifier that helps oil and water blend into a stable texture.",
	ingredient.RoleSupporting:   "%s is a supporting ingredient that helps the formula's texture and stability.",
}

// Template 回傳固定的角色說明；相同成分與角色永遠得到相同文字
func Template(canonical string, role ingredient.Role) string {
	tmpl, ok := roleTemplates[role]
	if !ok {
		tmpl = roleTemplates[ingredient.RoleSupporting]
	}
	return fmt.Sprintf(tmpl, displayName(canonical))
}

// displayName 將標準名稱轉為首字大寫的顯示名稱
func displayName(canonical string) string {
	if canonical == "" {
		return "This ingredient"
	}
	runes := []rune(canonical)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// templatePhrases 各模板中名稱之後的固定文字，用於辨識模板產生的內容
func templatePhrases() []string {
	phrases := make([]string, 0, len(roleTemplates))
	for _, tmpl := range roleTemplates {
		phrases = append(phrases, strings.ToLower(strings.TrimPrefix(tmpl, "%s ")))
	}
	return phrases
}
