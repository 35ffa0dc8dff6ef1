// Package xrun 管理进程内多个长期运行服务的启动与协调关闭。
//
// Group 基于 errgroup：任一服务返回错误，其余服务的 ctx 随之取消。
// Run 在 Group 之上挂接系统信号，收到信号时以 *SignalError 作为退出原因。
//
//	err := xrun.Run(ctx, []xrun.Option{xrun.WithLogger(logger)},
//		xrun.Named("http", xrun.HTTPServer(srv, 10*time.Second)),
//		xrun.Named("cache-sweep", xrun.Ticker(time.Minute, false, sweep)),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//		// 正常退出
//	}
package xrun
