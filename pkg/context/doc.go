// Package context 提供请求上下文相关的子包。
//
// 子包列表：
//   - xctx: 在 context.Context 中传递请求 ID、限流客户端标识与已认证用户
//
// 设计原则：
//   - 所有请求信息通过 context.Context 传递，不使用全局变量
//   - 中间件负责注入，日志 handler 负责提取
package context
