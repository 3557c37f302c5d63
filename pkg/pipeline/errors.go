package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerdneilsfield/doc-forge/pkg/extract"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
)

// 错误代码常量
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeExtraction          = "EXTRACTION_FAILURE"
	ErrCodeCompletion          = "COMPLETION_FAILURE"
	ErrCodeCompletionTimeout   = "COMPLETION_TIMEOUT"
	ErrCodeRenderEncode        = "RENDER_ENCODE_ERROR"
	ErrCodeStorage             = "STORAGE_ERROR"
)

// Error 流水线错误，调用方据 Code 映射用户可见的响应
type Error struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试。流水线自身从不自动重试
func (e *Error) IsRetryable() bool {
	return e.Retry
}

// NewError 创建不可重试错误
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewRetryableError 创建可重试错误
func NewRetryableError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Retry:   true,
	}
}

// invalidInput 输入校验失败
func invalidInput(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalidInput, fmt.Sprintf(format, args...), nil)
}

// completionError 补全失败一律可重试，超时单独标记
func completionError(err error) *Error {
	var perr *providers.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &perr) && perr.Code == providers.ErrCodeTimeout) {
		return NewRetryableError(ErrCodeCompletionTimeout, "completion timed out", err)
	}
	return NewRetryableError(ErrCodeCompletion, "completion failed", err)
}

// extractionError 将提取器错误映射为流水线错误
func extractionError(err error) *Error {
	if errors.Is(err, extract.ErrUnsupportedFileType) {
		return NewError(ErrCodeUnsupportedFileType, "unsupported file type", err)
	}
	return NewError(ErrCodeExtraction, "failed to extract text", err)
}

// renderError 编码失败
func renderError(format render.Format, err error) *Error {
	return NewError(ErrCodeRenderEncode, fmt.Sprintf("failed to render %s", format), err)
}

// storageError 存储失败
func storageError(err error) *Error {
	return NewError(ErrCodeStorage, "failed to store file", err)
}

// CodeOf 返回错误代码，非流水线错误返回空串
func CodeOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.IsRetryable()
	}
	return false
}
