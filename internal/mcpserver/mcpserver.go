// Package mcpserver 以 MCP 工具的形式暴露文档流水线
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// Version MCP 服务版本
const Version = "0.1.0"

// SegmentArgs segment_text 参数
type SegmentArgs struct {
	Text string `json:"text"`
}

// SegmentResponse segment_text 结果
type SegmentResponse struct {
	Blocks []structure.Block `json:"blocks"`
	Slides []structure.Slide `json:"slides"`
}

// GenerateArgs generate_document 参数
type GenerateArgs struct {
	Type    string `json:"type"`
	Prompt  string `json:"prompt"`
	Title   string `json:"title"`
	Context string `json:"context"`
}

// RewriteArgs rewrite_text 参数
type RewriteArgs struct {
	Content      string `json:"content"`
	Instructions string `json:"instructions"`
}

// TranslateArgs translate_text 参数
type TranslateArgs struct {
	Content        string `json:"content"`
	TargetLanguage string `json:"targetLanguage"`
}

// SummarizeArgs summarize_text 参数
type SummarizeArgs struct {
	Content string `json:"content"`
	Format  string `json:"format"`
}

// NewServer 创建注册了全部工具的 MCP 服务
func NewServer(p *pipeline.Pipeline) *server.MCPServer {
	s := server.NewMCPServer(
		"docforge",
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("segment_text",
		mcp.WithDescription("Split raw text into headings and paragraphs and group them into slides"),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text to segment")),
	), mcp.NewTypedToolHandler(segmentHandler()))

	s.AddTool(mcp.NewTool("generate_document",
		mcp.WithDescription("Generate a Word, PDF or PowerPoint document from a prompt and store it"),
		mcp.WithString("type", mcp.Required(), mcp.Enum("word", "pdf", "ppt"), mcp.Description("Target document type")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What the document should contain")),
		mcp.WithString("title", mcp.Description("Document title, used for the file name")),
		mcp.WithString("context", mcp.Description("Optional extra context for the model")),
	), mcp.NewTypedToolHandler(generateHandler(p)))

	s.AddTool(mcp.NewTool("rewrite_text",
		mcp.WithDescription("Rewrite text according to instructions"),
		mcp.WithString("content", mcp.Required(), mcp.Description("The text to rewrite")),
		mcp.WithString("instructions", mcp.Required(), mcp.Description("How to rewrite it")),
	), mcp.NewTypedToolHandler(rewriteHandler(p)))

	s.AddTool(mcp.NewTool("translate_text",
		mcp.WithDescription("Translate text while keeping its formatting"),
		mcp.WithString("content", mcp.Required(), mcp.Description("The text to translate")),
		mcp.WithString("targetLanguage", mcp.Required(), mcp.Description("Language to translate into")),
	), mcp.NewTypedToolHandler(translateHandler(p)))

	s.AddTool(mcp.NewTool("summarize_text",
		mcp.WithDescription("Summarize text as prose or as slide bullets"),
		mcp.WithString("content", mcp.Required(), mcp.Description("The text to summarize")),
		mcp.WithString("format", mcp.Enum("text", "slides"), mcp.Description("Summary layout, defaults to text")),
	), mcp.NewTypedToolHandler(summarizeHandler(p)))

	return s
}

// ServeStdio 通过标准输入输出提供 MCP 服务
func ServeStdio(p *pipeline.Pipeline) error {
	return server.ServeStdio(NewServer(p))
}

// ServeHTTP 以 streamable HTTP 提供 MCP 服务
func ServeHTTP(p *pipeline.Pipeline, addr string) error {
	return server.NewStreamableHTTPServer(NewServer(p)).Start(addr)
}

func segmentHandler() mcp.TypedToolHandlerFunc[SegmentArgs] {
	return func(_ context.Context, _ mcp.CallToolRequest, args SegmentArgs) (*mcp.CallToolResult, error) {
		blocks := structure.Segment(args.Text)
		return jsonResult(SegmentResponse{Blocks: blocks, Slides: structure.GroupSlides(blocks)})
	}
}

func generateHandler(p *pipeline.Pipeline) mcp.TypedToolHandlerFunc[GenerateArgs] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args GenerateArgs) (*mcp.CallToolResult, error) {
		format, err := render.ParseFormat(args.Type)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title := args.Title
		if title == "" {
			title = args.Prompt
		}
		result, err := p.Generate(ctx, &pipeline.GenerateRequest{
			Format:  format,
			Prompt:  args.Prompt,
			Title:   title,
			Context: args.Context,
		})
		if err != nil {
			return toolError("failed to generate document", err), nil
		}
		return jsonResult(result)
	}
}

func rewriteHandler(p *pipeline.Pipeline) mcp.TypedToolHandlerFunc[RewriteArgs] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args RewriteArgs) (*mcp.CallToolResult, error) {
		out, err := p.Rewrite(ctx, args.Content, args.Instructions)
		if err != nil {
			return toolError("failed to rewrite text", err), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func translateHandler(p *pipeline.Pipeline) mcp.TypedToolHandlerFunc[TranslateArgs] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args TranslateArgs) (*mcp.CallToolResult, error) {
		out, err := p.Translate(ctx, args.Content, args.TargetLanguage)
		if err != nil {
			return toolError("failed to translate text", err), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func summarizeHandler(p *pipeline.Pipeline) mcp.TypedToolHandlerFunc[SummarizeArgs] {
	return func(ctx context.Context, _ mcp.CallToolRequest, args SummarizeArgs) (*mcp.CallToolResult, error) {
		format, err := pipeline.ParseSummaryFormat(args.Format)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := p.Summarize(ctx, args.Content, format)
		if err != nil {
			return toolError("failed to summarize text", err), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// toolError 工具错误作为结果返回给调用方，而不是协议错误
func toolError(action string, err error) *mcp.CallToolResult {
	if code := pipeline.CodeOf(err); code != "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s [%s]: %v", action, code, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
