package xcache

import "errors"

var (
	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xcache: nil client")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	ErrEmptyKey = errors.New("xcache: empty key")

	// ErrClosed 表示缓存已关闭。
	ErrClosed = errors.New("xcache: closed")

	// ErrInvalidConfig 表示配置参数无效。
	ErrInvalidConfig = errors.New("xcache: invalid configuration")
)
