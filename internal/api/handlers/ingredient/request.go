package ingredient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"skincare-ingredients/internal/core/explain"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/pkg/common"
)

// ResolveRequest 成分解析請求
type ResolveRequest struct {
	Ingredients   []string `json:"ingredients" binding:"required"`
	ForceExternal bool     `json:"force_external"`
}

// ExplainRequest 成分說明請求；ingredients 可為字串或 {name, category}
type ExplainRequest struct {
	Ingredients []json.RawMessage `json:"ingredients" binding:"required,min=1"`
}

// limits 檢查請求的靜態上限，在任何正規化、快取或網路活動之前執行
type limits struct {
	validate      *validator.Validate
	rule          string
	maxItems      int
	maxNameLength int
}

func newLimits(cfg config.LimitsConfig) limits {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		validate = validator.New()
	}
	return limits{
		validate:      validate,
		rule:          fmt.Sprintf("max=%d,dive,max=%d", cfg.MaxIngredients, cfg.MaxNameLength),
		maxItems:      cfg.MaxIngredients,
		maxNameLength: cfg.MaxNameLength,
	}
}

// bindJSON 綁定請求體；超過大小上限回傳 413，其他格式錯誤回傳 400
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrPayloadTooLarge
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		if verrs[0].Tag() == "min" {
			return common.ErrInvalidRequest.WithMessage("ingredients must not be empty")
		}
		return common.ErrInvalidRequest.WithMessage("ingredients is required")
	}
	return common.ErrInvalidRequest.WithMessage("invalid JSON body")
}

// check 檢查成分數量與每個名稱的字元數
func (l limits) check(names []string) error {
	err := l.validate.Var(names, l.rule)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.ErrInvalidRequest.Wrap(err)
	}
	if verrs[0].Kind() == reflect.Slice {
		return common.ErrTooManyIngredients.WithMessage("at most %d ingredients per request", l.maxItems)
	}
	return common.ErrIngredientTooLong.WithMessage("ingredient %s exceeds %d characters", verrs[0].Field(), l.maxNameLength)
}

// explainItems 解析說明端點的字串或物件陣列
func (l limits) explainItems(raw []json.RawMessage) ([]explain.Item, error) {
	if len(raw) > l.maxItems {
		return nil, common.ErrTooManyIngredients.WithMessage("at most %d ingredients per request", l.maxItems)
	}

	out := make([]explain.Item, len(raw))
	names := make([]string, len(raw))
	for i, item := range raw {
		parsed, ok := parseExplainItem(item)
		if !ok {
			return nil, common.ErrInvalidRequest.WithMessage("ingredient %d must be a string or an object with a name", i)
		}
		out[i] = parsed
		names[i] = parsed.Name
	}
	if err := l.check(names); err != nil {
		return nil, err
	}
	return out, nil
}

func parseExplainItem(raw json.RawMessage) (explain.Item, bool) {
	if isString(raw) {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return explain.Item{}, false
		}
		return explain.Item{Name: name}, true
	}
	if len(raw) == 0 || raw[0] != '{' {
		return explain.Item{}, false
	}
	var obj struct {
		Name     *string `json:"name"`
		Category *string `json:"category"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Name == nil {
		return explain.Item{}, false
	}
	item := explain.Item{Name: *obj.Name}
	if obj.Category != nil {
		item.Category = *obj.Category
	}
	return item, true
}

func isString(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '"'
}
