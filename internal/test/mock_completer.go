package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// MockCompleter 是一个模拟的补全客户端
type MockCompleter struct {
	mock.Mock
}

var _ providers.Completer = (*MockCompleter)(nil)

// Complete 执行补全请求
func (m *MockCompleter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*providers.CompletionResponse)
	return resp, args.Error(1)
}

// Name 返回提供商名称
func (m *MockCompleter) Name() string {
	return "mock"
}

// OnComplete 为指定用途设置返回文本
func (m *MockCompleter) OnComplete(purpose providers.Purpose, text string) *mock.Call {
	return m.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return req.Purpose == purpose
	})).Return(&providers.CompletionResponse{Text: text, Model: "mock"}, nil)
}

// OnFail 为指定用途设置返回错误
func (m *MockCompleter) OnFail(purpose providers.Purpose, err error) *mock.Call {
	return m.On("Complete", mock.Anything, mock.MatchedBy(func(req *providers.CompletionRequest) bool {
		return req.Purpose == purpose
	})).Return(nil, err)
}
