// Package xresult 提供显式的加载结果类型 Result[T]。
//
// 可选依赖（如 Redis、Postgres）初始化失败时不应静默降级成零值，
// Result 要求调用方先检查 IsLoaded 再取值，失败原因随结果一起携带：
//
//	r := xresult.Try(connectRedis(ctx))
//	if !r.IsLoaded() {
//		logger.Warn(ctx, "redis unavailable", xlog.Err(r.Reason()))
//	}
package xresult

import "errors"

// ErrNoReason 表示以 nil 原因构造的失败结果。
var ErrNoReason = errors.New("xresult: failed without reason")

// Result 加载成功（Loaded）或失败（Failed）之一。零值为失败。
type Result[T any] struct {
	value  T
	reason error
	loaded bool
}

// Loaded 构造成功结果。
func Loaded[T any](v T) Result[T] {
	return Result[T]{value: v, loaded: true}
}

// Failed 构造失败结果，reason 为 nil 时记为 ErrNoReason。
func Failed[T any](reason error) Result[T] {
	if reason == nil {
		reason = ErrNoReason
	}
	return Result[T]{reason: reason}
}

// Try 将 (v, err) 形式的返回值转换为 Result。
func Try[T any](v T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Loaded(v)
}

func (r Result[T]) IsLoaded() bool { return r.loaded }

// Get 返回值与是否加载成功。失败时返回 T 的零值。
func (r Result[T]) Get() (T, bool) {
	return r.value, r.loaded
}

// Reason 返回失败原因，成功时为 nil。
func (r Result[T]) Reason() error {
	if r.loaded {
		return nil
	}
	if r.reason == nil {
		return ErrNoReason
	}
	return r.reason
}

// OrElse 成功时返回值，否则返回 fallback。
func (r Result[T]) OrElse(fallback T) T {
	if r.loaded {
		return r.value
	}
	return fallback
}

// Unwrap 回到 (v, err) 形式。
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.Reason()
}
