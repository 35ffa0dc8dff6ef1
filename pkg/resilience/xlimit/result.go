package xlimit

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// Result 限流检查结果
type Result struct {
	// Allowed 是否允许请求通过
	Allowed bool

	// Limit 当前规则的配额上限
	Limit int

	// Remaining 当前窗口内剩余配额
	Remaining int

	// ResetAt 当前窗口结束时间
	ResetAt time.Time

	// RetryAfter 建议重试等待时间（仅在 Allowed=false 时有意义）
	RetryAfter time.Duration

	// Key 客户端键
	Key string
}

// Err 被拒绝时返回 *LimitError，否则返回 nil。
func (r *Result) Err() error {
	if r == nil || r.Allowed {
		return nil
	}
	return &LimitError{Key: r.Key, Limit: r.Limit, RetryAfter: r.RetryAfter}
}

// Headers 返回标准限流响应头
//   - X-RateLimit-Limit: 配额上限
//   - X-RateLimit-Remaining: 剩余配额
//   - X-RateLimit-Reset: 窗口结束时间（Unix 秒）
//   - Retry-After: 重试等待秒数（仅在被限流时，向上取整）
func (r *Result) Headers() map[string]string {
	headers := map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(r.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(r.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(r.ResetAt.Unix(), 10),
	}
	if r.RetryAfter > 0 {
		// 亚秒级等待不能截断为 0，否则客户端会立即重试
		headers["Retry-After"] = strconv.FormatInt(int64(math.Ceil(r.RetryAfter.Seconds())), 10)
	}
	return headers
}

// SetHeaders 将限流响应头写入 http.ResponseWriter。
// Limit <= 0 表示无有效配额信息（如 FallbackOpen），此时跳过。
func (r *Result) SetHeaders(w http.ResponseWriter) {
	if r.Limit <= 0 {
		return
	}
	for key, value := range r.Headers() {
		w.Header().Set(key, value)
	}
}

// QuotaInfo 配额查询结果（不消耗配额）
type QuotaInfo struct {
	Key       string
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}
