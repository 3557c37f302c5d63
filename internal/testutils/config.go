package testutils

import (
	"path/filepath"

	"github.com/nerdneilsfield/doc-forge/internal/config"
)

// CreateTestConfig 创建用于测试的配置：离线补全，所有路径位于 dir 下
func CreateTestConfig(dir string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Completion.APIType = "raw"
	cfg.Completion.Key = "sk-test-1234567890"
	cfg.Completion.Timeout = 5
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")
	cfg.Database.Path = filepath.Join(dir, "docforge.db")
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.LogLevel = "error"
	return cfg
}
