// hisabd 是 Hisab 的 HTTP 服务进程。
//
// 用法:
//
//	hisabd serve --config /etc/hisab/hisabd.yaml
//	hisabd config --config /etc/hisab/hisabd.yaml   # 打印生效配置
//	hisabd version
//
// 未指定 --config 时使用内置默认配置（内存缓存、本地限流、内存存储）。
// 指定配置文件时 serve 会监视文件变更并热更新日志级别。
//
// 退出码:
//
//	0: 正常退出（含收到 SIGINT/SIGTERM）
//	1: 启动或运行失败
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息，通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "hisabd: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "hisabd",
		Usage:   "Hisab 好友账目服务",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
				Sources: cli.EnvVars("HISAB_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			configCommand(),
			versionCommand(),
		},
		DefaultCommand: "serve",
	}
}
