package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

type scripted struct {
	errs  []error
	calls int
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Complete(_ context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return &providers.CompletionResponse{Text: "ok:" + req.User}, nil
}

func newTestCompleter(t *testing.T, next providers.Completer, cfg Config) (*Completer, *[]time.Duration) {
	t.Helper()
	c, ok := Wrap(next, cfg, zaptest.NewLogger(t)).(*Completer)
	require.True(t, ok)
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return c, &slept
}

func TestWrapWithoutRetriesReturnsNext(t *testing.T) {
	next := &scripted{}
	assert.Same(t, providers.Completer(next), Wrap(next, Config{}, nil))
}

func TestRetriesRetryableErrors(t *testing.T) {
	next := &scripted{errs: []error{
		providers.NewError(providers.ErrCodeRateLimit, "slow down", nil),
		providers.NewError(providers.ErrCodeServer, "boom", nil),
	}}
	c, slept := newTestCompleter(t, next, DefaultConfig())

	resp, err := c.Complete(context.Background(), &providers.CompletionRequest{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok:hi", resp.Text)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
	assert.Equal(t, "scripted", c.Name())
}

func TestDoesNotRetryPermanentErrors(t *testing.T) {
	next := &scripted{errs: []error{providers.NewError(providers.ErrCodeAuth, "bad key", nil)}}
	c, slept := newTestCompleter(t, next, DefaultConfig())

	_, err := c.Complete(context.Background(), &providers.CompletionRequest{User: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, *slept)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	fail := providers.NewError(providers.ErrCodeNetwork, "reset", nil)
	next := &scripted{errs: []error{fail, fail, fail, fail}}
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	cfg.MaxDelay = 300 * time.Millisecond
	c, slept := newTestCompleter(t, next, cfg)

	_, err := c.Complete(context.Background(), &providers.CompletionRequest{User: "hi"})
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 3, next.calls)
	// 网络错误从较短的延迟开始，并受 MaxDelay 限制
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 300 * time.Millisecond}, *slept)
}

func TestStopsWhenContextCancelled(t *testing.T) {
	next := &scripted{errs: []error{providers.NewError(providers.ErrCodeServer, "boom", nil)}}
	c, _ := newTestCompleter(t, next, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, &providers.CompletionRequest{User: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}
