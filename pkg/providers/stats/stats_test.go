package stats

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/doc-forge/internal/test"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

func TestMiddlewareRecords(t *testing.T) {
	completer := &test.MockCompleter{}
	completer.On("Complete", context.Background(), &providers.CompletionRequest{Purpose: providers.PurposeGenerate, User: "a"}).
		Return(&providers.CompletionResponse{Text: "ok", TokensIn: 10, TokensOut: 4}, nil)
	completer.On("Complete", context.Background(), &providers.CompletionRequest{Purpose: providers.PurposeGenerate, User: "b"}).
		Return(nil, providers.NewError(providers.ErrCodeRateLimit, "limited", nil))
	completer.On("Complete", context.Background(), &providers.CompletionRequest{User: "c"}).
		Return(nil, errors.New("boom"))

	recorder := NewRecorder()
	wrapped := Wrap(completer, recorder)
	assert.Equal(t, "mock", wrapped.Name())

	resp, err := wrapped.Complete(context.Background(), &providers.CompletionRequest{Purpose: providers.PurposeGenerate, User: "a"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	_, err = wrapped.Complete(context.Background(), &providers.CompletionRequest{Purpose: providers.PurposeGenerate, User: "b"})
	require.Error(t, err)
	_, err = wrapped.Complete(context.Background(), &providers.CompletionRequest{User: "c"})
	require.Error(t, err)

	snapshot := recorder.Snapshot()
	require.Len(t, snapshot, 2)

	gen := snapshot[0]
	assert.Equal(t, "generate", gen.Purpose)
	assert.Equal(t, int64(2), gen.TotalRequests)
	assert.Equal(t, int64(1), gen.SuccessfulRequests)
	assert.Equal(t, int64(10), gen.TotalTokensIn)
	assert.Equal(t, int64(1), gen.ErrorTypes[providers.ErrCodeRateLimit])
	assert.InDelta(t, 50.0, gen.SuccessRate(), 1e-9)

	other := snapshot[1]
	assert.Equal(t, "other", other.Purpose)
	assert.Equal(t, int64(1), other.ErrorTypes["unknown"])

	completer.AssertExpectations(t)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	recorder := NewRecorder()
	recorder.WriteTable(&buf)
	assert.Contains(t, buf.String(), "No statistics available.")

	buf.Reset()
	recorder.Record("summarize", RequestResult{Success: true, TokensIn: 5, TokensOut: 3})
	recorder.WriteTable(&buf)
	assert.Contains(t, buf.String(), "summarize")
	assert.Contains(t, buf.String(), "100.0%")
}
