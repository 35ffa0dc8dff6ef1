package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/hisab/internal/app"
	"github.com/omeyang/hisab/pkg/config/xconf"
	"github.com/omeyang/hisab/pkg/lifecycle/xrun"
	"github.com/omeyang/hisab/pkg/observability/xlog"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动 HTTP 服务",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd.String("config"))
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "校验并打印生效配置",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			return printConfig(cmd.Root().Writer, cfg)
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "显示版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "hisabd %s\ncommit: %s\nbuilt:  %s\n", Version, GitCommit, BuildTime)
			return err
		},
	}
}

// loadConfig path 为空时返回默认配置与 nil source。
func loadConfig(path string) (app.Config, xconf.Config, error) {
	cfg := app.DefaultConfig()
	if path == "" {
		return cfg, nil, cfg.Validate()
	}
	src, err := xconf.New(path)
	if err != nil {
		return cfg, nil, err
	}
	cfg, err = xconf.Load(src, "", cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, src, cfg.Validate()
}

func printConfig(w io.Writer, cfg app.Config) error {
	// 不输出凭据
	if cfg.Redis.Password != "" {
		cfg.Redis.Password = "***"
	}
	if cfg.Postgres.DSN != "" {
		cfg.Postgres.DSN = "***"
	}
	if cfg.Server.AdminToken != "" {
		cfg.Server.AdminToken = "***"
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

func buildLogger(cfg app.LogConfig) (xlog.LoggerWithLevel, func() error, error) {
	b := xlog.New().SetLevelString(cfg.Level).SetFormat(cfg.Format)
	if cfg.File != "" {
		b.SetRotation(cfg.File, xlog.RotationConfig{
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
	return b.Build()
}

func serve(ctx context.Context, path string) (err error) {
	cfg, src, err := loadConfig(path)
	if err != nil {
		return err
	}
	logger, cleanup, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()
	xlog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.Close()) }()

	var extra []xrun.Service
	if src != nil {
		w, err := xconf.Watch(src, app.LogLevelReloader(logger))
		if err != nil {
			return err
		}
		extra = append(extra, xrun.Named("config-watch", w.Run))
	}

	err = a.Run(ctx, extra...)
	if errors.Is(err, xrun.ErrSignal) {
		logger.Info(ctx, "shutdown complete")
		return nil
	}
	return err
}
