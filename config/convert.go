package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "link": {"driver": "udp", "channel": 6},
//	  "rendezvous": {"send_count": 20, "send_delay": "250ms"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认值（1s 间隔，单播 100 次）
//   - "fast": 快速汇合，适合仿真与测试
//   - "lowpower": 低功耗，拉长发送间隔
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "default", "":
		return nil
	case "fast":
		cfg.Rendezvous.SendDelay = Duration(50 * time.Millisecond)
		cfg.Rendezvous.SendCount = 20
		cfg.Rendezvous.QueueSize = 16
		return nil
	case "lowpower":
		cfg.Rendezvous.SendDelay = Duration(5 * time.Second)
		cfg.Rendezvous.SendCount = 10
		cfg.Rendezvous.FillRandomPayload = false
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}

// CloneConfig 复制配置
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	return &c
}
