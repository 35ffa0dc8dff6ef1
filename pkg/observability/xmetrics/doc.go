// Package xmetrics 提供统一的观测接口（Observer/Span）及其 OpenTelemetry 实现。
//
// 组件（xlimit、xfetch 等）只依赖 Observer 接口：
//
//	ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
//		Component: "xfetch",
//		Operation: "fetch",
//		Kind:      xmetrics.KindClient,
//	})
//	defer func() { span.End(xmetrics.Result{Err: err}) }()
//
// observer 为 nil 时 Start 返回空跨度，组件无需判空。
// OTel 实现同时记录 span 与两个指标：
//   - hisab.operation.total    (counter, 属性 component/operation/status)
//   - hisab.operation.duration (histogram, 秒)
package xmetrics
