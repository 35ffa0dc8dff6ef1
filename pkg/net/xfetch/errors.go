package xfetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch 所有出站请求失败的哨兵错误，*FetchError 与之匹配
	ErrFetch = errors.New("xfetch: fetch failed")

	// ErrNilCache 表示传入的缓存为 nil
	ErrNilCache = errors.New("xfetch: nil cache")

	// ErrEmptyURL 表示请求 URL 为空
	ErrEmptyURL = errors.New("xfetch: empty url")
)

// FetchError 出站请求在拿到响应前失败（网络、超时、取消等）。
type FetchError struct {
	Method string
	URL    string
	Cause  error
}

// Error 实现 error 接口
func (e *FetchError) Error() string {
	return fmt.Sprintf("xfetch: %s %s: %v", e.Method, e.URL, e.Cause)
}

// Is 支持 errors.Is(err, ErrFetch)
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Unwrap 返回底层原因
func (e *FetchError) Unwrap() error {
	return e.Cause
}
