package config

import "fmt"

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别规格，例如 "info" 或 "rendezvous=debug,link=warn,info"
	Level string `json:"level"`

	// Format 输出格式："text" 或 "json"
	Format string `json:"format"`

	// File 日志文件，空表示标准错误
	File string `json:"file,omitempty"`
}

// DefaultLogConfig 默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch c.Format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("log: unknown format %q", c.Format)
	}
}
