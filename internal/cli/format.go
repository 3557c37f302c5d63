package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nerdneilsfield/doc-forge/internal/config"
	"github.com/nerdneilsfield/doc-forge/internal/store"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// previewWidth 表格中文本列的最大宽度
const previewWidth = 60

func successMark() string {
	return color.GreenString("✔")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFileResult 输出生成结果
func printFileResult(w io.Writer, file *pipeline.FileResult, copyPath string) {
	fmt.Fprintf(w, "%s Generated %s document\n", successMark(), strings.ToUpper(string(file.Format)))
	fmt.Fprintf(w, "  File:   %s\n", file.FilePath)
	fmt.Fprintf(w, "  Size:   %s\n", formatBytes(int64(file.Size)))
	fmt.Fprintf(w, "  Blocks: %d\n", file.Blocks)
	if copyPath != "" {
		fmt.Fprintf(w, "  Copy:   %s\n", copyPath)
	}
}

// printBlocks 以表格输出块序列
func printBlocks(w io.Writer, blocks []structure.Block) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Kind", "Level", "Text"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: previewWidth},
	})
	for i, b := range blocks {
		level := ""
		if b.IsHeading() {
			level = fmt.Sprintf("H%d", b.Level)
		}
		t.AppendRow(table.Row{i + 1, b.Kind, level, oneLine(b.Text)})
	}
	t.AppendFooter(table.Row{"", "Total", "", len(blocks)})
	t.Render()
}

// printSlides 输出幻灯片分组
func printSlides(w io.Writer, slides []structure.Slide) {
	title := color.New(color.FgCyan, color.Bold)
	for i, s := range slides {
		title.Fprintf(w, "Slide %d: %s\n", i+1, s.Title)
		for _, bullet := range s.Bullets {
			fmt.Fprintf(w, "  • %s\n", bullet)
		}
		if i < len(slides)-1 {
			fmt.Fprintln(w)
		}
	}
}

// printDocuments 以表格输出文档记录
func printDocuments(w io.Writer, docs []*store.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Title", "Type", "Version", "Status", "Updated"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 4, Align: text.AlignRight},
	})
	for _, d := range docs {
		t.AppendRow(table.Row{d.ID, d.Title, d.Type, d.Version, d.Status, formatTime(d.UpdatedAt)})
	}
	t.Render()
}

// printConfig 输出生效的配置，密钥只显示首尾
func printConfig(w io.Writer, cfg *config.Config, supported []string) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(w, "docforge configuration")
	title.Fprintln(w, strings.Repeat("=", 40))

	rows := map[string]interface{}{
		"server.addr":            cfg.Server.Addr,
		"server.max_upload_size": formatBytes(cfg.Server.MaxUploadSize),
		"storage.upload_dir":     cfg.Storage.UploadDir,
		"database.path":          cfg.Database.Path,
		"completion.api_type":    cfg.Completion.APIType,
		"completion.base_url":    cfg.Completion.BaseURL,
		"completion.key":         maskSecret(cfg.Completion.Key),
		"completion.model":       cfg.Completion.Model,
		"completion.max_tokens":  cfg.Completion.MaxTokens,
		"completion.timeout":     cfg.CompletionTimeout(),
		"completion.max_retries": cfg.Completion.MaxRetries,
		"collab.buffer":          cfg.Collab.Buffer,
		"prompts_file":           cfg.PromptsFile,
		"log_level":              cfg.LogLevel,
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	for _, k := range keys {
		t.AppendRow(table.Row{k, rows[k]})
	}
	t.Render()

	fmt.Fprintf(w, "Supported api types: %s\n", strings.Join(supported, ", "))
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatBytes 格式化字节数
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// formatTime 格式化时间
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
