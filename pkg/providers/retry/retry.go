// Package retry 为补全客户端提供指数退避重试
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// Config 重试配置
type Config struct {
	// 最大重试次数，0 表示不重试
	MaxRetries int `json:"max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`

	// 网络错误的初始延迟（通常更短）
	NetworkInitialDelay time.Duration `json:"network_initial_delay"`
}

// DefaultConfig 返回默认重试配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:          2,
		InitialDelay:        1 * time.Second,
		MaxDelay:            30 * time.Second,
		BackoffFactor:       2.0,
		NetworkInitialDelay: 200 * time.Millisecond,
	}
}

// Completer 带重试的补全客户端
type Completer struct {
	next   providers.Completer
	config Config
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ providers.Completer = (*Completer)(nil)

// Wrap 用重试包装补全客户端；MaxRetries 不大于 0 时原样返回
func Wrap(next providers.Completer, config Config, logger *zap.Logger) providers.Completer {
	if config.MaxRetries <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{next: next, config: config, logger: logger, sleep: sleepContext}
}

// Name 返回被包装客户端的名称
func (c *Completer) Name() string {
	return c.next.Name()
}

// Complete 执行补全，遇到可重试错误时退避后重试
func (c *Completer) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.delay(lastErr, attempt-1)
			c.logger.Warn("retrying completion",
				zap.String("provider", c.next.Name()),
				zap.String("purpose", string(req.Purpose)),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, lastErr
			}
		}

		resp, err := c.next.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !providers.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// delay 计算第 n 次重试前的等待时间
func (c *Completer) delay(err error, n int) time.Duration {
	delay := c.config.InitialDelay
	if isNetworkError(err) && c.config.NetworkInitialDelay > 0 {
		delay = c.config.NetworkInitialDelay
	}

	backoffFactor := c.config.BackoffFactor
	if backoffFactor <= 1.0 {
		backoffFactor = 2.0
	}
	if n > 0 {
		delay = time.Duration(float64(delay) * math.Pow(backoffFactor, float64(n)))
	}

	if c.config.MaxDelay > 0 && delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay
}

func isNetworkError(err error) bool {
	var perr *providers.Error
	return errors.As(err, &perr) && perr.Code == providers.ErrCodeNetwork
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
