package xlimit

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrRateLimited 表示请求被限流
	ErrRateLimited = errors.New("xlimit: rate limited")

	// ErrRedisUnavailable 表示 Redis 不可用（FallbackClose 策略返回）
	ErrRedisUnavailable = errors.New("xlimit: redis unavailable")

	// ErrInvalidRule 表示限流规则无效
	ErrInvalidRule = errors.New("xlimit: invalid rule")

	// ErrInvalidKey 表示限流键无效
	ErrInvalidKey = errors.New("xlimit: invalid key")

	// ErrLimiterClosed 表示限流器已关闭
	ErrLimiterClosed = errors.New("xlimit: limiter closed")

	// ErrNilClient 表示传入的 Redis 客户端为 nil
	ErrNilClient = errors.New("xlimit: nil redis client")
)

// LimitError 限流错误，由 Result.Err 生成。
type LimitError struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

// Error 实现 error 接口
func (e *LimitError) Error() string {
	return fmt.Sprintf("xlimit: rate limited, key=%s, limit=%d, retry_after=%s", e.Key, e.Limit, e.RetryAfter)
}

// Is 支持 errors.Is(err, ErrRateLimited)
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Unwrap 返回 ErrRateLimited
func (e *LimitError) Unwrap() error {
	return ErrRateLimited
}

// IsDenied 检查错误是否为限流错误
func IsDenied(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

var redisRelatedErrors = []error{
	ErrRedisUnavailable,
	redis.ErrClosed,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.EPIPE,
	syscall.ETIMEDOUT,
	io.EOF,
	io.ErrUnexpectedEOF,
}

// IsRedisError 检查是否是 Redis 连接类错误（可触发降级）。
// 使用错误链检查，不做字符串匹配。
func IsRedisError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range redisRelatedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
