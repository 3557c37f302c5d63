// Package config 加载 docforge 的运行配置（viper）以及提示词预设（TOML）
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nerdneilsfield/doc-forge/pkg/pipeline"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/retry"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	ReadTimeout   int    `mapstructure:"read_timeout"`    // 秒
	WriteTimeout  int    `mapstructure:"write_timeout"`   // 秒
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // 字节
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}

// DatabaseConfig 记录库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CompletionConfig 语言模型配置
type CompletionConfig struct {
	APIType         string            `mapstructure:"api_type"` // openai | compatible | raw
	BaseURL         string            `mapstructure:"base_url"`
	Key             string            `mapstructure:"key"`
	Model           string            `mapstructure:"model"`
	MaxTokens       int               `mapstructure:"max_tokens"`
	Timeout         int               `mapstructure:"timeout"` // 秒
	FilterReasoning bool              `mapstructure:"filter_reasoning"`
	MaxRetries      int               `mapstructure:"max_retries"` // 客户端重试次数，默认 0 不重试
	Headers         map[string]string `mapstructure:"headers"`
}

// CollabConfig 协作中心配置
type CollabConfig struct {
	Buffer int `mapstructure:"buffer"` // 每个订阅者的事件缓冲
}

// Config docforge 的全部配置
type Config struct {
	Server      ServerConfig     `mapstructure:"server"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Completion  CompletionConfig `mapstructure:"completion"`
	Collab      CollabConfig     `mapstructure:"collab"`
	PromptsFile string           `mapstructure:"prompts_file"`
	LogLevel    string           `mapstructure:"log_level"`
	Debug       bool             `mapstructure:"debug"`
}

// LoadConfig 从文件和环境变量加载配置，找不到配置文件时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".docforge")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，DOCFORGE_COMPLETION_KEY 对应 completion.key
	v.SetEnvPrefix("DOCFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if config.Completion.Key == "" {
		config.Completion.Key = os.Getenv("OPENAI_API_KEY")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig 将配置保存为 YAML
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".docforge.yaml")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range structToMap(config) {
		v.Set(key, value)
	}

	// 创建父目录（如果不存在）
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return v.WriteConfigAs(configPath)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	def := providers.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   30,
			WriteTimeout:  180, // 补全可能较慢
			MaxUploadSize: 10 << 20,
		},
		Storage:  StorageConfig{UploadDir: "data/uploads"},
		Database: DatabaseConfig{Path: "data/docforge.db"},
		Completion: CompletionConfig{
			APIType:         def.APIType,
			Model:           def.Model,
			MaxTokens:       def.MaxTokens,
			Timeout:         int(def.Timeout / time.Second),
			FilterReasoning: def.FilterReasoning,
			Headers:         map[string]string{},
		},
		Collab:   CollabConfig{Buffer: 16},
		LogLevel: "info",
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Completion.APIType {
	case "openai", "compatible", "raw":
	default:
		return fmt.Errorf("unsupported completion api_type: %q", c.Completion.APIType)
	}
	if c.Completion.APIType == "compatible" && c.Completion.BaseURL == "" {
		return fmt.Errorf("completion.base_url is required for api_type compatible")
	}
	if c.Completion.MaxRetries < 0 {
		return fmt.Errorf("completion.max_retries must not be negative")
	}
	if c.Completion.Timeout < 0 {
		return fmt.Errorf("completion.timeout must not be negative")
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir must be specified")
	}
	return nil
}

// ProviderConfig 转换为补全客户端配置
func (c *Config) ProviderConfig() providers.Config {
	return providers.Config{
		APIType:         c.Completion.APIType,
		APIKey:          c.Completion.Key,
		BaseURL:         c.Completion.BaseURL,
		Model:           c.Completion.Model,
		MaxTokens:       c.Completion.MaxTokens,
		Timeout:         c.CompletionTimeout(),
		Headers:         c.Completion.Headers,
		FilterReasoning: c.Completion.FilterReasoning,
	}
}

// CompletionTimeout 补全超时
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Completion.Timeout) * time.Second
}

// RetryConfig 补全重试配置
func (c *Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.Completion.MaxRetries
	return cfg
}

// LoadPrompts 加载提示词预设，未配置文件时返回内置提示词
func (c *Config) LoadPrompts() (*pipeline.Prompts, error) {
	return pipeline.LoadPrompts(c.PromptsFile)
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	for key, value := range structToMap(NewDefaultConfig()) {
		v.SetDefault(key, value)
	}
}

// structToMap 将配置转换为扁平的 key → value
func structToMap(config *Config) map[string]interface{} {
	return map[string]interface{}{
		"server.addr":                 config.Server.Addr,
		"server.read_timeout":         config.Server.ReadTimeout,
		"server.write_timeout":        config.Server.WriteTimeout,
		"server.max_upload_size":      config.Server.MaxUploadSize,
		"storage.upload_dir":          config.Storage.UploadDir,
		"database.path":               config.Database.Path,
		"completion.api_type":         config.Completion.APIType,
		"completion.base_url":         config.Completion.BaseURL,
		"completion.key":              config.Completion.Key,
		"completion.model":            config.Completion.Model,
		"completion.max_tokens":       config.Completion.MaxTokens,
		"completion.timeout":          config.Completion.Timeout,
		"completion.filter_reasoning": config.Completion.FilterReasoning,
		"completion.max_retries":      config.Completion.MaxRetries,
		"completion.headers":          config.Completion.Headers,
		"collab.buffer":               config.Collab.Buffer,
		"prompts_file":                config.PromptsFile,
		"log_level":                   config.LogLevel,
		"debug":                       config.Debug,
	}
}
