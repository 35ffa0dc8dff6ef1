package xlimit

import (
	"fmt"
	"time"
)

// Rule 固定窗口规则：每个 Window 内最多 MaxRequests 次请求。
type Rule struct {
	Window      time.Duration `json:"window" koanf:"window"`
	MaxRequests int           `json:"max_requests" koanf:"max_requests"`
}

// DefaultRule 每分钟 100 次
var DefaultRule = Rule{Window: time.Minute, MaxRequests: 100}

// Validate 校验规则。MaxRequests 必须 >= 1：新窗口的第一个请求总是被放行，
// 0 无法表达。
func (r Rule) Validate() error {
	if r.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidRule, r.Window)
	}
	if r.MaxRequests < 1 {
		return fmt.Errorf("%w: max requests must be >= 1, got %d", ErrInvalidRule, r.MaxRequests)
	}
	return nil
}
