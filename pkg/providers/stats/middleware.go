package stats

import (
	"context"
	"errors"
	"time"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// Middleware 带统计的补全客户端包装
type Middleware struct {
	next     providers.Completer
	recorder *Recorder
}

var _ providers.Completer = (*Middleware)(nil)

// Wrap 用统计中间件包装补全客户端
func Wrap(next providers.Completer, recorder *Recorder) *Middleware {
	return &Middleware{next: next, recorder: recorder}
}

// Name 返回被包装客户端的名称
func (m *Middleware) Name() string {
	return m.next.Name()
}

// Complete 执行补全并记录结果
func (m *Middleware) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	start := time.Now()
	resp, err := m.next.Complete(ctx, req)

	result := RequestResult{
		Success: err == nil,
		Latency: time.Since(start),
	}
	if err != nil {
		result.ErrorType = errorType(err)
	} else if resp != nil {
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
	}

	purpose := string(req.Purpose)
	if purpose == "" {
		purpose = "other"
	}
	m.recorder.Record(purpose, result)

	return resp, err
}

func errorType(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return providers.ErrCodeTimeout
	}
	return "unknown"
}
