// Package xcache 提供带 TTL 的键值缓存。
//
// # 语义
//
// 每个条目记录写入时间 createdAt 与 ttl，满足 now - createdAt <= ttl 时有效。
// 过期采用惰性策略：Get 读到过期条目时视为未命中并删除该条目，不启动后台定时器。
//
//   - Set：无条件覆盖，ttl <= 0 时使用默认 TTL（60s）
//   - Get：未命中返回 ok=false，不是错误
//   - Delete：返回是否实际删除
//   - ClearByPattern：按字面子串匹配删除（不是正则，也不是 glob）
//   - Clear：清空，可重复调用
//   - Stats：返回条目数与键列表，不修改状态也不触发过期检查
//
// # 后端
//
//   - NewMemory：进程内 map + 互斥锁。WithMaxEntries 启用 LRU 上限（golang-lru/simplelru）。
//   - NewRedis：go-redis 实现，键带前缀隔离，过期由 Redis 负责。
//
// 两者都实现 Cache 接口，调用方可在不改代码的情况下切换为共享后端。
//
// 内存后端额外实现 Sweeper，可由调度器主动清理过期条目，默认不启用。
//
// # 类型化访问
//
// Typed[T] 在 Cache 之上做 JSON 编解码，解码失败的条目会被删除并按未命中处理。
package xcache
