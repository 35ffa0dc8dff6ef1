// Package xlimit 提供按客户端计数的固定窗口限流。
//
// # 算法
//
// 每个客户端键维护 {count, windowExpiry}。一次 CheckLimit：
//
//  1. 记录存在且 windowExpiry > now：count+1 > maxRequests 时拒绝（不递增），否则递增并放行
//  2. 记录不存在或窗口已过期：开启新窗口 count=1、windowExpiry=now+window，放行
//  3. 每次调用顺带清理 windowExpiry < now-window 的记录
//
// 因此每个窗口恰好放行 maxRequests 次，第 maxRequests+1 次被拒绝。
// 清理是 O(n) 的全表遍历，只用于约束内存，不影响正确性。
//
// 被拒绝不是错误：CheckLimit 返回 Result.Allowed=false 且 err=nil。
// 需要错误语义时使用 Result.Err()，返回可与 ErrRateLimited 匹配的 *LimitError。
//
// # 后端
//
//   - NewLocal：进程内 map + 互斥锁
//   - NewRedis：Lua 脚本在 Redis 上原子执行同样的边界检查，窗口由 PX 过期控制
//   - NewWithFallback：Redis 优先，Redis 不可用时按 FallbackStrategy 降级
//
// # HTTP 中间件
//
// HTTPMiddleware 用 X-Forwarded-For 的第一跳作为客户端键（缺失时依次尝试
// X-Real-IP、回环占位 "127.0.0.1"），拒绝时返回 429 与纯文本 "Too Many Requests"。
// 限流器内部错误时放行请求（fail-open），除非结果明确拒绝。
package xlimit
