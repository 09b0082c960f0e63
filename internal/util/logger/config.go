// Package logger 提供统一的日志接口
//
// 支持通过环境变量配置日志级别：
//   - RAWLINK_LOG_LEVEL: 设置日志级别，支持按子系统配置
//     格式: 子系统=级别,子系统=级别,默认级别
//     示例: rendezvous=debug,link=warn,info
//   - RAWLINK_LOG_FORMAT: 日志格式 (text 或 json)
//   - RAWLINK_LOG_ADD_SOURCE: 是否附带源码位置
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat

	// AddSource 是否添加源码位置
	AddSource bool
}

// LevelForSubsystem 获取指定子系统的日志级别
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	if level, ok := c.SubsystemLevels[subsystem]; ok {
		return level
	}
	return c.DefaultLevel
}

var (
	configCache *Config
	configOnce  sync.Once
	configMu    sync.RWMutex
)

// ConfigFromEnv 从环境变量解析配置
//
// 结果会被缓存；调用 Apply 后返回的是被覆盖后的配置。
func ConfigFromEnv() *Config {
	configOnce.Do(func() {
		configMu.Lock()
		configCache = parseConfig()
		configMu.Unlock()
	})
	configMu.RLock()
	defer configMu.RUnlock()
	return configCache
}

// Apply 用显式配置字符串覆盖环境变量配置
//
// levelSpec 与 RAWLINK_LOG_LEVEL 语法相同，format 为 text 或 json，空串表示不覆盖。
// 已创建的子系统 Logger 会同步调整级别。
func Apply(levelSpec, format string) {
	base := ConfigFromEnv()

	cfg := &Config{
		DefaultLevel:    base.DefaultLevel,
		SubsystemLevels: make(map[string]slog.Level, len(base.SubsystemLevels)),
		Format:          base.Format,
		AddSource:       base.AddSource,
	}
	for k, v := range base.SubsystemLevels {
		cfg.SubsystemLevels[k] = v
	}
	if levelSpec != "" {
		parseLevelConfig(cfg, levelSpec)
	}
	if format != "" {
		cfg.Format = parseFormat(format)
	}

	configMu.Lock()
	configCache = cfg
	configMu.Unlock()

	handlers.Range(func(key, value any) bool {
		value.(*subsystemHandler).SetLevel(cfg.LevelForSubsystem(key.(string)))
		return true
	})
}

// parseConfig 解析环境变量配置
func parseConfig() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
		AddSource:       false,
	}

	if levelStr := os.Getenv("RAWLINK_LOG_LEVEL"); levelStr != "" {
		parseLevelConfig(cfg, levelStr)
	}

	if formatStr := os.Getenv("RAWLINK_LOG_FORMAT"); formatStr != "" {
		cfg.Format = parseFormat(formatStr)
	}

	if addSourceStr := os.Getenv("RAWLINK_LOG_ADD_SOURCE"); addSourceStr != "" {
		cfg.AddSource = addSourceStr != "false" && addSourceStr != "0"
	}

	return cfg
}

func parseFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// parseLevelConfig 解析日志级别配置字符串
// 格式: subsystem=level,subsystem=level,defaultLevel
func parseLevelConfig(cfg *Config, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			subsystem := strings.TrimSpace(kv[0])
			if level, ok := ParseLevel(strings.TrimSpace(kv[1])); ok {
				cfg.SubsystemLevels[subsystem] = level
			}
			continue
		}

		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ResetConfig 重置配置缓存（仅用于测试）
func ResetConfig() {
	configMu.Lock()
	configOnce = sync.Once{}
	configCache = nil
	configMu.Unlock()
}
