package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/doc-forge/internal/test"
	"github.com/nerdneilsfield/doc-forge/pkg/extract"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
)

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Write(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	path := "/uploads/" + name
	s.files[path] = data
	return path, nil
}

type blockingCompleter struct{}

func (blockingCompleter) Name() string { return "blocking" }

func (blockingCompleter) Complete(ctx context.Context, _ *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var fixedNow = time.UnixMilli(1700000000123)

func newTestPipeline(t *testing.T, completer providers.Completer, storage Storage, opts ...Option) *Pipeline {
	t.Helper()
	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(completer, storage, append(base, opts...)...)
}

func lastRequest(m *test.MockCompleter) *providers.CompletionRequest {
	calls := m.Calls
	return calls[len(calls)-1].Arguments.Get(1).(*providers.CompletionRequest)
}

func TestGenerate(t *testing.T) {
	for _, format := range render.Formats() {
		t.Run(string(format), func(t *testing.T) {
			completer := &test.MockCompleter{}
			completer.OnComplete(providers.PurposeGenerate, "# Plan\n\nWe will ship. Then rest.")
			storage := newMemStorage()

			p := newTestPipeline(t, completer, storage)
			result, err := p.Generate(context.Background(), &GenerateRequest{
				Format: format,
				Prompt: "a launch plan",
				Title:  "Launch Plan!",
			})
			require.NoError(t, err)

			want := fmt.Sprintf("1700000000123-launch-plan-.%s", format.Extension())
			assert.Equal(t, want, result.FileName)
			assert.Equal(t, "/uploads/"+want, result.FilePath)
			assert.Equal(t, "# Plan\n\nWe will ship. Then rest.", result.Text)
			assert.Equal(t, 2, result.Blocks)
			assert.NotEmpty(t, storage.files[result.FilePath])
			assert.Equal(t, len(storage.files[result.FilePath]), result.Size)

			req := lastRequest(completer)
			assert.Equal(t, "a launch plan", req.User)
			assert.InDelta(t, 0.7, req.Temperature, 1e-9)
			assert.Contains(t, req.System, "well-structured "+upperName(format)+" document")
			completer.AssertExpectations(t)
		})
	}
}

func upperName(f render.Format) string {
	switch f {
	case render.FormatWord:
		return "WORD"
	case render.FormatPDF:
		return "PDF"
	default:
		return "PPT"
	}
}

func TestGenerateWithContext(t *testing.T) {
	completer := &test.MockCompleter{}
	completer.OnComplete(providers.PurposeGenerate, "")

	p := newTestPipeline(t, completer, newMemStorage())
	result, err := p.Generate(context.Background(), &GenerateRequest{
		Format:  render.FormatSlides,
		Prompt:  "pitch deck",
		Context: "seed round",
	})
	require.NoError(t, err)
	assert.Equal(t, "", result.Text)
	assert.Equal(t, 1, result.Blocks)
	assert.Equal(t, "1700000000123-document.pptx", result.FileName)

	req := lastRequest(completer)
	assert.Equal(t,
		"You are a professional document creator. Create a PPT document based on the user's request. Use this context: seed round"+
			" Create slide content with titles and bullet points suitable for a PowerPoint presentation.",
		req.System)
}

func TestGenerateInvalidInput(t *testing.T) {
	completer := &test.MockCompleter{}
	p := newTestPipeline(t, completer, newMemStorage())

	_, err := p.Generate(context.Background(), &GenerateRequest{Format: render.FormatWord})
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
	assert.False(t, IsRetryable(err))

	_, err = p.Generate(context.Background(), &GenerateRequest{Format: "rtf", Prompt: "x"})
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))

	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerateCompletionFailure(t *testing.T) {
	completer := &test.MockCompleter{}
	completer.OnFail(providers.PurposeGenerate, providers.NewError(providers.ErrCodeServer, "boom", nil))
	storage := newMemStorage()

	p := newTestPipeline(t, completer, storage)
	_, err := p.Generate(context.Background(), &GenerateRequest{Format: render.FormatPDF, Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeCompletion, CodeOf(err))
	assert.True(t, IsRetryable(err))
	assert.Empty(t, storage.files)
	completer.AssertNumberOfCalls(t, "Complete", 1)
}

func TestCompletionTimeout(t *testing.T) {
	p := newTestPipeline(t, blockingCompleter{}, newMemStorage(), WithCompletionTimeout(20*time.Millisecond))

	_, err := p.Rewrite(context.Background(), "text", "shorter")
	require.Error(t, err)
	assert.Equal(t, ErrCodeCompletionTimeout, CodeOf(err))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateStorageFailure(t *testing.T) {
	completer := &test.MockCompleter{}
	completer.OnComplete(providers.PurposeGenerate, "Body text. More.")
	storage := newMemStorage()
	storage.err = errors.New("disk full")

	p := newTestPipeline(t, completer, storage)
	_, err := p.Generate(context.Background(), &GenerateRequest{Format: render.FormatWord, Prompt: "x"})
	assert.Equal(t, ErrCodeStorage, CodeOf(err))

	_, err = newTestPipeline(t, completer, nil).RenderText(context.Background(), "x", render.FormatWord, "t")
	assert.Equal(t, ErrCodeStorage, CodeOf(err))
}

func TestTextOperations(t *testing.T) {
	completer := &test.MockCompleter{}
	completer.OnComplete(providers.PurposeRewrite, "rewritten")
	completer.OnComplete(providers.PurposeTranslate, "traduit")
	completer.OnComplete(providers.PurposeSummarize, "- point")
	completer.OnComplete(providers.PurposeGrammar, `{"errors": []}`)

	p := newTestPipeline(t, completer, nil)
	ctx := context.Background()

	out, err := p.Rewrite(ctx, "original", "make it formal")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", out)
	req := lastRequest(completer)
	assert.Equal(t, "Rewrite this document: original\n\nInstructions: make it formal", req.User)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)

	out, err = p.Translate(ctx, "hello", "French")
	require.NoError(t, err)
	assert.Equal(t, "traduit", out)
	req = lastRequest(completer)
	assert.Contains(t, req.System, "Translate the document to French")
	assert.Equal(t, "Translate this document:\n\nhello", req.User)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)

	out, err = p.Summarize(ctx, "long text", SummarySlides)
	require.NoError(t, err)
	assert.Equal(t, "- point", out)
	req = lastRequest(completer)
	assert.Contains(t, req.System, "slide outline")
	assert.InDelta(t, 0.5, req.Temperature, 1e-9)

	_, err = p.Summarize(ctx, "long text", SummaryText)
	require.NoError(t, err)
	assert.Contains(t, lastRequest(completer).System, "professional summarizer")

	out, err = p.CheckGrammar(ctx, "teh cat")
	require.NoError(t, err)
	assert.Equal(t, `{"errors": []}`, out)
	assert.InDelta(t, 0.2, lastRequest(completer).Temperature, 1e-9)
}

func TestTextOperationsInvalidInput(t *testing.T) {
	p := newTestPipeline(t, &test.MockCompleter{}, nil)
	ctx := context.Background()

	_, err := p.Rewrite(ctx, "text", " ")
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
	_, err = p.Translate(ctx, "text", "")
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
	_, err = p.Summarize(ctx, "", SummaryText)
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
	_, err = p.Summarize(ctx, "x", "outline")
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
	_, err = p.CheckGrammar(ctx, "")
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))
}

func TestIngest(t *testing.T) {
	storage := newMemStorage()
	p := newTestPipeline(t, nil, storage)
	ctx := context.Background()

	result, err := p.Ingest(ctx, &IngestRequest{Data: []byte("Notes\n\nSome text. Here."), MimeType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, extract.KindPlainText, result.Kind)
	assert.Equal(t, "Notes\n\nSome text. Here.", result.Text)
	assert.Nil(t, result.File)
	assert.Empty(t, storage.files)

	result, err = p.Ingest(ctx, &IngestRequest{
		Data:      []byte("Notes\n\nSome text. Here."),
		MimeType:  "text/markdown",
		Title:     "notes",
		ConvertTo: render.FormatWord,
	})
	require.NoError(t, err)
	require.NotNil(t, result.File)
	assert.Equal(t, "1700000000123-notes.docx", result.File.FileName)
	assert.Equal(t, 2, result.File.Blocks)

	// 转换后的文件可以再次被提取
	again, err := p.Ingest(ctx, &IngestRequest{
		Data:     storage.files[result.File.FilePath],
		MimeType: render.FormatWord.ContentType(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Notes\n\nSome text. Here.", again.Text)
}

func TestIngestErrors(t *testing.T) {
	p := newTestPipeline(t, nil, newMemStorage())
	ctx := context.Background()

	_, err := p.Ingest(ctx, &IngestRequest{MimeType: "text/plain"})
	assert.Equal(t, ErrCodeInvalidInput, CodeOf(err))

	_, err = p.Ingest(ctx, &IngestRequest{Data: []byte("x"), MimeType: "application/unknown"})
	assert.Equal(t, ErrCodeUnsupportedFileType, CodeOf(err))
	assert.ErrorIs(t, err, extract.ErrUnsupportedFileType)

	_, err = p.Ingest(ctx, &IngestRequest{Data: []byte("not a pdf"), MimeType: "application/pdf"})
	assert.Equal(t, ErrCodeExtraction, CodeOf(err))
	assert.False(t, IsRetryable(err))
}

func TestRenderIsDeterministic(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	for _, format := range render.Formats() {
		a, _, err := p.Render(context.Background(), "# T\n\nBody. Text.", format)
		require.NoError(t, err)
		b, _, err := p.Render(context.Background(), "# T\n\nBody. Text.", format)
		require.NoError(t, err)
		assert.Equal(t, a, b, string(format))
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "my-doc-", Slug("My Doc!"))
	assert.Equal(t, "q3---report", Slug("Q3 & report"))
	assert.Equal(t, "1700000000123-document.pdf", FileName(fixedNow, "", "pdf"))
	assert.Equal(t, "1700000000123-a-b.docx", FileName(fixedNow, "A B", "docx"))
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[translate]
system = "Translate into {language}, keep markdown."
temperature = 0.1

[generate_suffix]
pdf = " Keep it to one page."
`), 0o644))

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Translate into {language}, keep markdown.", prompts.Translate.System)
	assert.InDelta(t, 0.1, prompts.Translate.Temperature, 1e-9)
	assert.Equal(t, "Translate this document:\n\n{content}", prompts.Translate.User)
	assert.Equal(t, " Keep it to one page.", prompts.GenerateSuffix["pdf"])
	assert.NotEmpty(t, prompts.GenerateSuffix["word"])

	req := prompts.TranslateRequest("hi", "German")
	assert.Equal(t, "Translate into German, keep markdown.", req.System)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	defaults, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), defaults)
}

func TestFillDoesNotExpandValues(t *testing.T) {
	req := DefaultPrompts().RewriteRequest("use {instructions} literally", "be brief")
	assert.Equal(t, "Rewrite this document: use {instructions} literally\n\nInstructions: be brief", req.User)
}
