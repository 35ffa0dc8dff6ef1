// Package xbreaker 基于 sony/gobreaker/v2 提供泛型熔断器。
//
// 连续失败达到阈值后熔断器打开，Timeout 内的调用直接返回 ErrOpen；
// 之后进入半开状态放行少量探测请求。通过 WithIsSuccessful 可以把
// 业务错误（如记录不存在）排除在失败统计之外。
package xbreaker
