package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/collab"
	"github.com/nerdneilsfield/doc-forge/internal/config"
	"github.com/nerdneilsfield/doc-forge/internal/documents"
	"github.com/nerdneilsfield/doc-forge/internal/logger"
	"github.com/nerdneilsfield/doc-forge/internal/storage"
	"github.com/nerdneilsfield/doc-forge/internal/store"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/factory"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/retry"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/stats"
)

var (
	// 全局标志
	cfgFile   string
	debugMode bool
	logLevel  string
	showStats bool // 命令结束后输出补全统计
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docforge",
		Short: "docforge 将文本和模型输出转换为 Word、PDF 和 PowerPoint 文档",
		Long: `docforge 把原始文本切分为标题与段落，再渲染为 Word (.docx)、PDF 或 PowerPoint (.pptx)。

它可以调用语言模型生成、改写、翻译和总结内容，也可以从上传的
Word、PDF 或纯文本文件中提取文本并转换格式。

支持的补全提供商:
  - openai: OpenAI GPT 模型
  - compatible: 任意 OpenAI 兼容接口（vLLM、Ollama、网关等）
  - raw: 离线模式，直接返回输入文本`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（默认 $HOME/.docforge.yaml）")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "结束后输出补全调用统计")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewMCPCommand(),
		NewGenerateCommand(),
		NewRenderCommand(),
		NewIngestCommand(),
		NewSegmentCommand(),
		NewRewriteCommand(),
		NewTranslateCommand(),
		NewSummarizeCommand(),
		NewDocumentsCommand(),
		NewConfigCommand(),
	)

	return rootCmd
}

// app 命令执行所需的共享依赖
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	files    *storage.Local
	recorder *stats.Recorder
	pipeline *pipeline.Pipeline
}

// newApp 加载配置和日志，withCompleter 为 false 时不创建补全客户端
func newApp(withCompleter bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if debugMode || cfg.Debug {
		level = "debug"
	}
	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewLocal(cfg.Storage.UploadDir, log)
	if err != nil {
		return nil, fmt.Errorf("初始化文件存储失败: %w", err)
	}

	prompts, err := cfg.LoadPrompts()
	if err != nil {
		return nil, fmt.Errorf("加载提示词失败: %w", err)
	}

	rt := &app{cfg: cfg, log: log, files: files, recorder: stats.NewRecorder()}

	var completer providers.Completer
	if withCompleter {
		client, err := factory.New(cfg.ProviderConfig(), log)
		if err != nil {
			return nil, fmt.Errorf("创建补全客户端失败: %w", err)
		}
		completer = retry.Wrap(stats.Wrap(client, rt.recorder), cfg.RetryConfig(), log)
		log.Debug("completion provider ready",
			zap.String("provider", client.Name()),
			zap.String("model", cfg.Completion.Model),
			zap.Int("max_retries", cfg.Completion.MaxRetries))
	}

	rt.pipeline = pipeline.New(completer, files,
		pipeline.WithLogger(log),
		pipeline.WithPrompts(prompts),
		pipeline.WithCompletionTimeout(cfg.CompletionTimeout()),
	)
	return rt, nil
}

// openService 打开记录库并组装文档服务，返回的关闭函数释放记录库和协作中心
func (rt *app) openService() (*documents.Service, func(), error) {
	st, err := store.Open(rt.cfg.Database.Path, rt.log)
	if err != nil {
		return nil, nil, fmt.Errorf("打开记录库失败: %w", err)
	}
	hub := collab.NewHub(rt.cfg.Collab.Buffer, rt.log)

	svc := documents.NewService(rt.pipeline, st, rt.files, hub,
		documents.WithLogger(rt.log),
		documents.WithMaxUploadSize(rt.cfg.Server.MaxUploadSize),
	)
	closeFn := func() {
		hub.Close()
		if err := st.Close(); err != nil {
			rt.log.Warn("failed to close store", zap.Error(err))
		}
	}
	return svc, closeFn, nil
}

// finish 同步日志，按需输出统计
func (rt *app) finish(cmd *cobra.Command) {
	if showStats {
		printStats(cmd.ErrOrStderr(), rt.recorder)
	}
	_ = rt.log.Sync()
}

// readInput 读取参数指定的文件，没有参数或为 "-" 时读取标准输入
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, "", err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("读取输入文件失败: %w", err)
	}
	return data, filepath.Base(args[0]), nil
}

// writeOutput 写入输出文件，路径为空时写到标准输出
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
