// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xcache: TTL 缓存抽象，内存（可选 LRU 上限）与 Redis 两种后端
//
// 设计原则：
//   - 调用方只依赖 Cache 接口，后端可替换
//   - 内置 OpenTelemetry 指标
package storage
