package xlimit

import (
	"net"
	"net/http"
	"strings"
)

// LoopbackClientKey 请求未携带转发地址时使用的客户端键
const LoopbackClientKey = "127.0.0.1"

// ClientKeyFunc 从请求中提取客户端键
type ClientKeyFunc func(r *http.Request) string

// ForwardedClientKey 默认客户端键提取：
// X-Forwarded-For 第一跳 → X-Real-IP → LoopbackClientKey。
//
// 不使用 RemoteAddr：部署在反向代理之后时它总是代理地址。
func ForwardedClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := normalizeIP(first); ip != "" {
			return ip
		}
	}
	if ip := normalizeIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return LoopbackClientKey
}

// RemoteAddrClientKey 使用连接对端地址，适用于直接暴露的服务。
func RemoteAddrClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := normalizeIP(host); ip != "" {
		return ip
	}
	return LoopbackClientKey
}

// normalizeIP 去除空白并校验为合法 IP，非法时返回空串。
func normalizeIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
