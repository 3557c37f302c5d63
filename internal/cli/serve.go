package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/mcpserver"
	"github.com/nerdneilsfield/doc-forge/internal/server"
)

var (
	serveAddr string
	mcpHTTP   string
)

// NewServeCommand 创建 serve 命令
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 服务",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址，覆盖配置文件中的 server.addr")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newApp(true)
	if err != nil {
		return err
	}
	defer rt.finish(cmd)

	svc, closeFn, err := rt.openService()
	if err != nil {
		return err
	}
	defer closeFn()

	addr := rt.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(svc, server.Options{
		Addr:          addr,
		ReadTimeout:   time.Duration(rt.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:  time.Duration(rt.cfg.Server.WriteTimeout) * time.Second,
		MaxUploadSize: rt.cfg.Server.MaxUploadSize,
	}, rt.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.log.Info("docforge starting",
		zap.String("addr", addr),
		zap.String("upload_dir", rt.files.Dir()),
		zap.String("database", rt.cfg.Database.Path))
	return srv.Start(ctx)
}

// NewMCPCommand 创建 mcp 命令
func NewMCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "以 MCP 服务的形式提供文档工具（默认 stdio）",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	cmd.Flags().StringVar(&mcpHTTP, "http", "", "以 streamable HTTP 监听该地址，而不是 stdio")
	return cmd
}

func runMCP(cmd *cobra.Command, _ []string) error {
	rt, err := newApp(true)
	if err != nil {
		return err
	}
	defer rt.finish(cmd)

	if mcpHTTP != "" {
		rt.log.Info("mcp server listening", zap.String("addr", mcpHTTP))
		return mcpserver.ServeHTTP(rt.pipeline, mcpHTTP)
	}
	return mcpserver.ServeStdio(rt.pipeline)
}

