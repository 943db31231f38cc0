package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrUnavailable 沒有可用的計數儲存
var ErrUnavailable = errors.New("rate limit store unavailable")

// 計數與首次設定過期時間在伺服器端一次完成
var admitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Decision 限流判定結果
type Decision struct {
	Allowed           bool
	CurrentCount      int64
	RetryAfterSeconds int
}

// Limiter 以 Redis 固定視窗計數的限流器
type Limiter struct {
	client redis.Scripter
	now    func() time.Time
}

// NewLimiter 建立限流器；client 為 nil 時每次判定都回傳 ErrUnavailable
func NewLimiter(client redis.Scripter) *Limiter {
	return &Limiter{client: client, now: time.Now}
}

// Admit 為 endpoint/identifier 計數一次並判定是否放行。
// 視窗內第 maxRequests 次請求仍放行，之後的請求被拒絕並附上視窗剩餘秒數。
func (l *Limiter) Admit(ctx context.Context, endpoint, identifier string, maxRequests int, window time.Duration) (Decision, error) {
	if maxRequests <= 0 || window < time.Millisecond {
		return Decision{}, fmt.Errorf("invalid rate limit policy: %d per %s", maxRequests, window)
	}
	if l == nil || l.client == nil {
		return Decision{}, ErrUnavailable
	}

	nowMs := l.now().UnixMilli()
	windowMs := window.Milliseconds()
	startMs := nowMs - nowMs%windowMs
	key := Key(endpoint, identifier, startMs/1000)

	count, err := admitScript.Run(ctx, l.client, []string{key}, windowMs).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}

	d := Decision{
		Allowed:      count <= int64(maxRequests),
		CurrentCount: count,
	}
	if !d.Allowed {
		remainingMs := startMs + windowMs - nowMs
		d.RetryAfterSeconds = int((remainingMs + 999) / 1000)
		if d.RetryAfterSeconds < 1 {
			d.RetryAfterSeconds = 1
		}
	}
	return d, nil
}

// Key 回傳計數鍵：ratelimit:{endpoint}:{identifier}:{window_start_unix}
func Key(endpoint, identifier string, windowStartUnix int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", endpoint, identifier, windowStartUnix)
}
