// Package providers 定义语言模型补全协作者的接口、配置和错误
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Purpose 补全用途，用于日志和统计
type Purpose string

const (
	PurposeGenerate  Purpose = "generate"
	PurposeRewrite   Purpose = "rewrite"
	PurposeSummarize Purpose = "summarize"
	PurposeTranslate Purpose = "translate"
	PurposeGrammar   Purpose = "grammar"
)

// Config 补全客户端配置
type Config struct {
	// API 配置
	APIType string `json:"api_type"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`

	MaxTokens int `json:"max_tokens"`

	// 单次请求超时，0 表示只依赖调用方的 context
	Timeout time.Duration `json:"timeout"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`

	// 是否过滤 <think> 等推理内容
	FilterReasoning bool `json:"filter_reasoning"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		APIType:         "openai",
		Model:           "gpt-4-turbo-preview",
		MaxTokens:       4096,
		Timeout:         2 * time.Minute,
		Headers:         make(map[string]string),
		FilterReasoning: true,
	}
}

// CompletionRequest 一次补全请求：系统提示加用户文本
type CompletionRequest struct {
	Purpose     Purpose `json:"purpose"`
	System      string  `json:"system"`
	User        string  `json:"user"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CompletionResponse 补全结果
type CompletionResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model,omitempty"`
	TokensIn     int    `json:"tokens_in,omitempty"`
	TokensOut    int    `json:"tokens_out,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Completer 语言模型补全协作者。实现不做自动重试
type Completer interface {
	// Complete 执行一次补全，可能较慢或失败
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name 返回提供商名称
	Name() string
}

// 错误码
const (
	ErrCodeRateLimit     = "rate_limit"
	ErrCodeTimeout       = "timeout"
	ErrCodeServer        = "server_error"
	ErrCodeAuth          = "auth"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeEmptyResponse = "empty_response"
	ErrCodeNetwork       = "network"
)

// Error 提供商错误
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimit, ErrCodeTimeout, ErrCodeServer, ErrCodeNetwork, ErrCodeEmptyResponse:
		return true
	default:
		return false
	}
}

// NewError 创建提供商错误
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeForStatus 将 HTTP 状态码映射为错误码
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status >= 500:
		return ErrCodeServer
	case status >= 400:
		return ErrCodeBadRequest
	default:
		return ErrCodeNetwork
	}
}

// WrapError 把 SDK 返回的错误归一为 *Error。context 超时优先识别为 timeout
func WrapError(ctx context.Context, provider string, status int, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	code := ErrCodeNetwork
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		code = ErrCodeTimeout
		if !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	case status > 0:
		code = CodeForStatus(status)
	}

	return &Error{
		Code:       code,
		Message:    provider + " completion failed",
		StatusCode: status,
		Cause:      err,
	}
}

// IsRetryable 判断任意错误是否可重试
func IsRetryable(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.IsRetryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
