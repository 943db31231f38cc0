package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得請求 ID（由 requestid 中間件設置）
func RequestID(c *gin.Context) string {
	if id := c.Writer.Header().Get("X-Request-ID"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// WriteError 寫入錯誤響應並中止請求
func WriteError(c *gin.Context, err error) {
	ce := AsCustomError(err)
	if ce.Status >= 500 {
		LogError("Request failed",
			zap.Error(err),
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestID(c)),
		)
	}
	c.AbortWithStatusJSON(ce.Status, ErrorResponse{
		Code:  ce.Code,
		Error: ce.Message,
	})
}

// WriteRateLimited 寫入 429 響應，附上 Retry-After
func WriteRateLimited(c *gin.Context, retryAfter int) {
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.AbortWithStatusJSON(ErrTooManyRequests.Status, ErrorResponse{
		Code:       ErrTooManyRequests.Code,
		Error:      ErrTooManyRequests.Message,
		RetryAfter: retryAfter,
	})
}
