package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code       string `json:"code"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比較，讓 WithMessage 產生的副本仍可被 errors.Is 辨識
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage 以相同代碼與狀態建立帶有具體訊息的副本
func (e *CustomError) WithMessage(format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Status:  e.Status,
		Err:     e.Err,
	}
}

// Wrap 以相同代碼與狀態包裝底層錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError；逾時對應 504，其他回傳內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGatewayTimeout.Wrap(err)
	}
	return ErrInternalError.Wrap(err)
}

// StoreError 表示儲存層的錯誤（查詢失敗或資料列格式錯誤）
type StoreError struct {
	Table string
	Op    string
	Key   string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s [%s]: %v", e.Table, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Table, e.Op, e.Err)
}

// Unwrap 回傳原始錯誤
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrMalformedRow 資料列內容不符合預期格式
var ErrMalformedRow = errors.New("malformed row")

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"      // 400
	ErrCodeTooManyItems    = "TOO_MANY_INGREDIENTS" // 400
	ErrCodeItemTooLong     = "INGREDIENT_TOO_LONG"  // 400
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"    // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"    // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest     = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrTooManyIngredients = NewError(ErrCodeTooManyItems, "too many ingredients", http.StatusBadRequest, nil)
	ErrIngredientTooLong  = NewError(ErrCodeItemTooLong, "ingredient name too long", http.StatusBadRequest, nil)
	ErrPayloadTooLarge    = NewError(ErrCodePayloadTooLarge, "request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrTooManyRequests    = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeRequestTimeout, "request timeout", http.StatusGatewayTimeout, nil)
)
