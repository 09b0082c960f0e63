package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// ValidateAndFix 验证配置并修复常见问题
//
// 可修复的问题：
//   - 帧长度小于帧头 -> 帧头长度
//   - 队列容量非正 -> 默认值
//   - 未知溢出策略 -> "drop"
//   - 空的日志格式 -> "text"
func ValidateAndFix(c *Config) (*Config, error) {
	if c == nil {
		return NewConfig(), nil
	}

	if c.Rendezvous.SendLen < minSendLen {
		c.Rendezvous.SendLen = minSendLen
	}
	if c.Rendezvous.QueueSize <= 0 {
		c.Rendezvous.QueueSize = DefaultRendezvousConfig().QueueSize
	}
	switch c.Rendezvous.OverflowPolicy {
	case "drop", "block":
	default:
		c.Rendezvous.OverflowPolicy = "drop"
	}
	if c.Rendezvous.SightingsSize <= 0 {
		c.Rendezvous.SightingsSize = DefaultRendezvousConfig().SightingsSize
	}
	if c.Link.MaxPeers <= 0 {
		c.Link.MaxPeers = DefaultLinkConfig().MaxPeers
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed after fixes: %w", err)
	}
	return c, nil
}

// MustValidate 验证配置，失败时 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}
