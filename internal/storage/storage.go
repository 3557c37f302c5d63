// Package storage 本地文件存储：原子写入、按逻辑路径或 http(s) 地址读取、删除
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PublicPrefix 写入结果的逻辑路径前缀
const PublicPrefix = "/uploads/"

// DefaultMaxReadSize 远程读取的最大字节数
const DefaultMaxReadSize = 64 << 20

// ErrInvalidPath 逻辑路径无法映射到存储目录
var ErrInvalidPath = errors.New("invalid storage path")

// Local 基于本地目录的存储
type Local struct {
	dir         string
	client      *http.Client
	maxReadSize int64
	logger      *zap.Logger
}

// NewLocal 创建本地存储，目录不存在时自动创建
func NewLocal(dir string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{
		dir:         dir,
		client:      &http.Client{Timeout: 60 * time.Second},
		maxReadSize: DefaultMaxReadSize,
		logger:      logger,
	}, nil
}

// Dir 返回存储目录
func (s *Local) Dir() string {
	return s.dir
}

// Write 先写临时文件再重命名，失败时不留下部分文件
func (s *Local) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	// 调用方已放弃请求时不提交
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("commit %s: %w", name, err)
	}
	committed = true

	s.logger.Debug("file stored", zap.String("name", name), zap.Int("bytes", len(data)))
	return PublicPrefix + name, nil
}

// Read 读取逻辑路径或 http(s) 地址
func (s *Local) Read(ctx context.Context, p string) ([]byte, error) {
	if isRemote(p) {
		return s.readRemote(ctx, p)
	}
	full, err := s.Resolve(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete 删除文件，文件不存在不视为错误，远程地址忽略
func (s *Local) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isRemote(p) {
		return nil
	}
	full, err := s.Resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

// Resolve 把逻辑路径映射到存储目录中的文件
func (s *Local) Resolve(p string) (string, error) {
	name := strings.TrimPrefix(p, PublicPrefix)
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Local) readRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxReadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > s.maxReadSize {
		return nil, fmt.Errorf("fetch %s: body exceeds %d bytes", url, s.maxReadSize)
	}
	return data, nil
}

// cleanName 只接受单层文件名
func cleanName(name string) (string, error) {
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return name, nil
}

func isRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
