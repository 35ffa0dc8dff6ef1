// Package xfetch 提供经 TTL 缓存短路的出站 HTTP 请求。
//
// Fetch 的流程：
//
//  1. 以 url + ":" + json(options) 作为缓存键（见 CacheKey）
//  2. 命中则直接返回缓存的响应
//  3. 未命中时经 resty 发起请求；仅 2xx 响应写入缓存（默认 30s），
//     非 2xx 响应原样返回给调用方但不缓存
//  4. 传输失败返回 *FetchError（可与 ErrFetch 匹配，Unwrap 得到原因），
//     在此处记录日志，且从不缓存
//
// 缓存后端故障不会阻断请求：读失败按未命中处理，写失败只记录日志。
//
// WithSingleflight(true) 合并同一缓存键上的并发未命中，默认关闭。
package xfetch
