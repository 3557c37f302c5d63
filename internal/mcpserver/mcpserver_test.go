package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/doc-forge/internal/storage"
	"github.com/nerdneilsfield/doc-forge/internal/test"
	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

func newPipeline(t *testing.T) (*pipeline.Pipeline, *test.MockCompleter) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	files, err := storage.NewLocal(t.TempDir(), logger)
	require.NoError(t, err)
	completer := &test.MockCompleter{}
	return pipeline.New(completer, files, pipeline.WithLogger(logger)), completer
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func call(name string, args interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	p, _ := newPipeline(t)
	assert.NotNil(t, NewServer(p))
}

func TestSegmentHandler(t *testing.T) {
	args := SegmentArgs{Text: "# Intro\n\nFirst point. Second point.\n\n## Next\n\nMore text. Yes."}
	result, err := segmentHandler()(context.Background(), call("segment_text", args), args)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp SegmentResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Len(t, resp.Blocks, 4)
	assert.Len(t, resp.Slides, 2)
	assert.Equal(t, "Intro", resp.Slides[0].Title)
}

func TestGenerateHandler(t *testing.T) {
	p, completer := newPipeline(t)
	completer.OnComplete(providers.PurposeGenerate, "# Plan\n\nStep one. Step two.")

	args := GenerateArgs{Type: "ppt", Prompt: "launch plan", Title: "Launch"}
	result, err := generateHandler(p)(context.Background(), call("generate_document", args), args)
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var resp pipeline.GenerateResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Contains(t, resp.FilePath, "launch.pptx")
	assert.Positive(t, resp.Size)
}

func TestGenerateHandlerRejectsUnknownType(t *testing.T) {
	p, _ := newPipeline(t)
	args := GenerateArgs{Type: "odt", Prompt: "x"}
	result, err := generateHandler(p)(context.Background(), call("generate_document", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTextHandlers(t *testing.T) {
	p, completer := newPipeline(t)
	completer.OnComplete(providers.PurposeRewrite, "rewritten")
	completer.OnComplete(providers.PurposeTranslate, "bonjour")
	completer.OnComplete(providers.PurposeSummarize, "- one\n- two")

	ctx := context.Background()

	rw := RewriteArgs{Content: "hello", Instructions: "shorter"}
	result, err := rewriteHandler(p)(ctx, call("rewrite_text", rw), rw)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", resultText(t, result))

	tr := TranslateArgs{Content: "hello", TargetLanguage: "French"}
	result, err = translateHandler(p)(ctx, call("translate_text", tr), tr)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", resultText(t, result))

	sm := SummarizeArgs{Content: "long text", Format: "slides"}
	result, err = summarizeHandler(p)(ctx, call("summarize_text", sm), sm)
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two", resultText(t, result))

	bad := SummarizeArgs{Content: "long text", Format: "poem"}
	result, err = summarizeHandler(p)(ctx, call("summarize_text", bad), bad)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCompletionFailureIsToolError(t *testing.T) {
	p, completer := newPipeline(t)
	completer.OnFail(providers.PurposeTranslate, providers.NewError(providers.ErrCodeRateLimit, "slow down", nil))

	args := TranslateArgs{Content: "hello", TargetLanguage: "German"}
	result, err := translateHandler(p)(context.Background(), call("translate_text", args), args)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), pipeline.ErrCodeCompletion)
}
