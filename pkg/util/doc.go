// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xresult: 显式加载结果类型 Result[T]，区分加载成功与失败
package util
