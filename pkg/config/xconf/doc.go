// Package xconf 基于 koanf 加载 YAML/JSON 配置，并支持文件变更热加载。
//
// 基本用法：
//
//	cfg, err := xconf.New("/etc/hisab/hisabd.yaml")
//	if err != nil {
//		return err
//	}
//	settings, err := xconf.Load(cfg, "", defaults)
//
// Load 以 defaults 为底，文件中出现的字段覆盖默认值，缺失字段保持默认。
// 时长字段可以写成 "30s"、"1m" 这样的字符串，实现 encoding.TextUnmarshaler
// 的类型（如 xlog.Level）按文本解析。
//
// Watcher 监视配置文件所在目录（编辑器常以 rename 方式保存），
// 在防抖窗口结束后 Reload 并回调。Run(ctx) 阻塞到 ctx 结束，适合交给 xrun.Group。
package xconf
