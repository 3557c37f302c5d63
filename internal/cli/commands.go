package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/internal/documents"
	"github.com/nerdneilsfield/doc-forge/internal/preview"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

var (
	// generate / render / ingest 相关标志
	docType      string
	docTitle     string
	docContext   string
	outputPath   string
	convertTo    string
	jsonOutput   bool
	slidesOutput bool
	normalizeMD  bool

	// 文本处理相关标志
	instructions   string
	targetLanguage string
	summaryFormat  string
)

// NewGenerateCommand 创建 generate 命令
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [flags] <prompt>",
		Short: "调用语言模型生成文档并渲染",
		Long: `根据提示词生成文档内容，切分后渲染为指定格式并保存到上传目录。

用法示例：
  docforge generate --type pdf --title "Q3 Report" "季度销售总结"
  docforge generate -t ppt -o deck.pptx "产品发布会大纲"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGenerate,
	}
	cmd.Flags().StringVarP(&docType, "type", "t", "word", "文档类型 (word, pdf, ppt)")
	cmd.Flags().StringVar(&docTitle, "title", "", "文档标题，用于文件名（默认使用提示词）")
	cmd.Flags().StringVar(&docContext, "context", "", "附加上下文")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "另存一份到指定路径")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(docType)
	if err != nil {
		return err
	}

	rt, err := newApp(true)
	if err != nil {
		return err
	}
	defer rt.finish(cmd)

	prompt := strings.Join(args, " ")
	title := docTitle
	if title == "" {
		title = prompt
	}

	result, err := rt.pipeline.Generate(cmd.Context(), &pipeline.GenerateRequest{
		Format:  format,
		Prompt:  prompt,
		Title:   title,
		Context: docContext,
	})
	if err != nil {
		return err
	}

	if outputPath != "" {
		data, err := rt.files.Read(cmd.Context(), result.FilePath)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, outputPath, data); err != nil {
			return err
		}
	}

	printFileResult(cmd.OutOrStdout(), &result.FileResult, outputPath)
	return nil
}

// NewRenderCommand 创建 render 命令
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [flags] [input_file]",
		Short: "把文本渲染为 Word、PDF 或 PowerPoint，不调用模型",
		Long: `读取文本（文件或标准输入），切分为块后渲染为目标格式。

用法示例：
  docforge render --format pdf -o notes.pdf notes.txt
  cat slides.md | docforge render -f ppt -o deck.pptx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRender,
	}
	cmd.Flags().StringVarP(&docType, "format", "f", "word", "输出格式 (word, pdf, ppt)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件路径（必填）")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(docType)
	if err != nil {
		return err
	}

	rt, err := newApp(false)
	if err != nil {
		return err
	}
	defer rt.finish(cmd)

	input, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	data, blocks, err := rt.pipeline.Render(cmd.Context(), string(input), format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, outputPath, data); err != nil {
		return err
	}

	rt.log.Info("document rendered",
		zap.String("format", string(format)),
		zap.String("output", outputPath),
		zap.Int("blocks", len(blocks)),
		zap.Int("bytes", len(data)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d blocks, %s)\n",
		successMark(), outputPath, len(blocks), formatBytes(int64(len(data))))
	return nil
}

// NewIngestCommand 创建 ingest 命令
func NewIngestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [flags] <file>",
		Short: "从 Word、PDF 或纯文本文件中提取文本，可选转换格式",
		Long: `提取文件中的文本并输出到标准输出；指定 --convert 时把提取的文本渲染为新格式。

用法示例：
  docforge ingest report.pdf
  docforge ingest --convert ppt -o deck.pptx report.docx`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
	cmd.Flags().StringVar(&convertTo, "convert", "", "转换为 (word, pdf, ppt)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "转换输出路径；未转换时为文本输出路径")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	rt, err := newApp(false)
	if err != nil {
		return err
	}
	defer rt.finish(cmd)

	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	result, err := rt.pipeline.Ingest(cmd.Context(), &pipeline.IngestRequest{
		Data:     data,
		MimeType: documents.DetectMimeType(name, ""),
		Title:    name,
	})
	if err != nil {
		return err
	}
	rt.log.Debug("file ingested",
		zap.String("kind", result.Kind.String()),
		zap.Int("pages", result.PageCount),
		zap.Int("chars", len(result.Text)))

	if convertTo == "" {
		return writeOutput(cmd, outputPath, []byte(result.Text))
	}

	format, err := render.ParseFormat(convertTo)
	if err != nil {
		return err
	}
	if outputPath == "" {
		return fmt.Errorf("--output is required with --convert")
	}
	out, blocks, err := rt.pipeline.Render(cmd.Context(), result.Text, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, outputPath, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s (%d blocks)\n", successMark(), result.Kind, outputPath, len(blocks))
	return nil
}

// NewSegmentCommand 创建 segment 命令
func NewSegmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment [flags] [input_file]",
		Short: "显示文本的切分结果（标题、段落与幻灯片分组）",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSegment,
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "以 JSON 输出")
	cmd.Flags().BoolVar(&slidesOutput, "slides", false, "显示幻灯片分组而不是块")
	cmd.Flags().BoolVar(&normalizeMD, "markdown", false, "切分前先规范化 Markdown")
	return cmd
}

func runSegment(cmd *cobra.Command, args []string) error {
	input, _, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	text := string(input)
	if normalizeMD {
		if text, err = preview.Normalize(text); err != nil {
			return fmt.Errorf("规范化 Markdown 失败: %w", err)
		}
	}

	blocks := structure.Segment(text)
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput && slidesOutput:
		return printJSON(out, structure.GroupSlides(blocks))
	case jsonOutput:
		return printJSON(out, blocks)
	case slidesOutput:
		printSlides(out, structure.GroupSlides(blocks))
	default:
		printBlocks(out, blocks)
	}
	return nil
}

// NewRewriteCommand 创建 rewrite 命令
func NewRewriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite [flags] [input_file]",
		Short: "按说明改写文本",
		Args:  cobra.MaximumNArgs(1),
		RunE: textCommand(func(ctx context.Context, p *pipeline.Pipeline, content string) (string, error) {
			return p.Rewrite(ctx, content, instructions)
		}),
	}
	cmd.Flags().StringVarP(&instructions, "instructions", "i", "", "改写说明（必填）")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件路径")
	_ = cmd.MarkFlagRequired("instructions")
	return cmd
}

// NewTranslateCommand 创建 translate 命令
func NewTranslateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [flags] [input_file]",
		Short: "翻译文本并保留格式",
		Args:  cobra.MaximumNArgs(1),
		RunE: textCommand(func(ctx context.Context, p *pipeline.Pipeline, content string) (string, error) {
			return p.Translate(ctx, content, targetLanguage)
		}),
	}
	cmd.Flags().StringVarP(&targetLanguage, "to", "l", "", "目标语言（必填）")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件路径")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// NewSummarizeCommand 创建 summarize 命令
func NewSummarizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [flags] [input_file]",
		Short: "总结文本，可输出为幻灯片要点",
		Args:  cobra.MaximumNArgs(1),
		RunE: textCommand(func(ctx context.Context, p *pipeline.Pipeline, content string) (string, error) {
			format, err := pipeline.ParseSummaryFormat(summaryFormat)
			if err != nil {
				return "", err
			}
			return p.Summarize(ctx, content, format)
		}),
	}
	cmd.Flags().StringVar(&summaryFormat, "format", "text", "总结格式 (text, slides)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出文件路径")
	return cmd
}

type textOperation func(ctx context.Context, p *pipeline.Pipeline, content string) (string, error)

// textCommand 读取输入、调用补全、写出结果
func textCommand(op textOperation) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newApp(true)
		if err != nil {
			return err
		}
		defer rt.finish(cmd)

		input, _, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		out, err := op(cmd.Context(), rt.pipeline, string(input))
		if err != nil {
			return err
		}
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		return writeOutput(cmd, outputPath, []byte(out))
	}
}
